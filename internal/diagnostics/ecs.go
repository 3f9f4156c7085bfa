package diagnostics

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"

	"github.com/soyeahso/alarmhound/internal/capability"
)

type ecsParams struct {
	Cluster string `json:"cluster" jsonschema_description:"The ECS cluster name or ARN"`
	Service string `json:"service" jsonschema_description:"The ECS service name or ARN"`
}

// ECSService describes an ECS service and its deployments.
func ECSService(api ECSAPI) capability.Capability {
	return capability.Typed(NameECSService,
		"Get detailed information about an ECS service including its status, "+
			"task counts, and deployment state. Use this to understand service "+
			"health and configuration related to an alarm.",
		func(ctx context.Context, p ecsParams) (capability.Payload, error) {
			out, err := api.DescribeServices(ctx, &ecs.DescribeServicesInput{
				Cluster:  aws.String(p.Cluster),
				Services: []string{p.Service},
			})
			if err != nil {
				return capability.Failure(err), nil
			}
			if len(out.Services) == 0 {
				return capability.Failuref("Service %s not found in cluster %s", p.Service, p.Cluster), nil
			}

			svc := out.Services[0]
			deployments := make([]map[string]any, 0, len(svc.Deployments))
			for _, d := range svc.Deployments {
				deployments = append(deployments, map[string]any{
					"id":            aws.ToString(d.Id),
					"status":        aws.ToString(d.Status),
					"desired":       d.DesiredCount,
					"running":       d.RunningCount,
					"rollout_state": string(d.RolloutState),
				})
			}

			return capability.Success(map[string]any{
				"service": map[string]any{
					"name":          aws.ToString(svc.ServiceName),
					"arn":           aws.ToString(svc.ServiceArn),
					"status":        aws.ToString(svc.Status),
					"desired_count": svc.DesiredCount,
					"running_count": svc.RunningCount,
					"pending_count": svc.PendingCount,
					"launch_type":   string(svc.LaunchType),
					"deployments":   deployments,
				},
			}), nil
		})
}
