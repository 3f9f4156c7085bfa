package diagnostics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/soyeahso/alarmhound/internal/capability"
)

type ec2Params struct {
	InstanceID string `json:"instance_id" jsonschema_description:"The EC2 instance ID (e.g., i-1234567890abcdef0)"`
}

// EC2Instance describes a single EC2 instance.
func EC2Instance(api EC2API) capability.Capability {
	return capability.Typed(NameEC2Instance,
		"Get detailed information about an EC2 instance including its state, "+
			"type, network configuration, and tags. Use this to understand the "+
			"current state and configuration of an instance related to an alarm.",
		func(ctx context.Context, p ec2Params) (capability.Payload, error) {
			out, err := api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{p.InstanceID}})
			if err != nil {
				return capability.Failure(err), nil
			}
			if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
				return capability.Failuref("Instance %s not found", p.InstanceID), nil
			}

			inst := out.Reservations[0].Instances[0]

			var name string
			tags := make(map[string]string, len(inst.Tags))
			for _, t := range inst.Tags {
				k, v := aws.ToString(t.Key), aws.ToString(t.Value)
				tags[k] = v
				if k == "Name" && name == "" {
					name = v
				}
			}

			var state string
			if inst.State != nil {
				state = string(inst.State.Name)
			}
			var launched string
			if inst.LaunchTime != nil {
				launched = inst.LaunchTime.UTC().Format(time.RFC3339)
			}

			return capability.Success(map[string]any{
				"instance": map[string]any{
					"instance_id":   aws.ToString(inst.InstanceId),
					"instance_type": string(inst.InstanceType),
					"state":         state,
					"launch_time":   launched,
					"private_ip":    aws.ToString(inst.PrivateIpAddress),
					"public_ip":     aws.ToString(inst.PublicIpAddress),
					"vpc_id":        aws.ToString(inst.VpcId),
					"subnet_id":     aws.ToString(inst.SubnetId),
					"name":          name,
					"tags":          tags,
				},
			}), nil
		})
}
