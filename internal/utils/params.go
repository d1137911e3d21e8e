package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func pathID(ctx *gin.Context, param, label string) (uint64, error) {
	raw := ctx.Param(param)

	if raw == "" {
		return 0, errors.New(label + " not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid " + label)
	}

	return id, nil
}

func GetProjectID(ctx *gin.Context) (uint64, error) {
	return pathID(ctx, "project_id", "Project ID")
}

func GetMonitorID(ctx *gin.Context) (uint64, error) {
	return pathID(ctx, "monitor_id", "Monitor ID")
}

func GetTeamID(ctx *gin.Context) (uint64, error) {
	return pathID(ctx, "team_id", "Team ID")
}

func GetPolicyID(ctx *gin.Context) (uint64, error) {
	return pathID(ctx, "policy_id", "Policy ID")
}

func GetRuleID(ctx *gin.Context) (uint, error) {
	id, err := pathID(ctx, "rule_id", "Rule ID")
	return uint(id), err
}

func GetIncidentID(ctx *gin.Context) (uint64, error) {
	return pathID(ctx, "incident_id", "Incident ID")
}

func GetExecutionID(ctx *gin.Context) (uint64, error) {
	return pathID(ctx, "execution_id", "Execution ID")
}

func GetProjectMonitorID(ctx *gin.Context) (uint64, uint64, error) {
	projectID, err := GetProjectID(ctx)

	if err != nil {
		return 0, 0, err
	}

	monitorID, err := GetMonitorID(ctx)

	if err != nil {
		return 0, 0, err
	}

	return projectID, monitorID, nil
}
