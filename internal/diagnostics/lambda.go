package diagnostics

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/soyeahso/alarmhound/internal/capability"
)

type lambdaParams struct {
	FunctionName string `json:"function_name" jsonschema_description:"The Lambda function name or ARN"`
}

// LambdaFunction describes a Lambda function's configuration. Environment
// variable values are never returned, only their names.
func LambdaFunction(api LambdaAPI) capability.Capability {
	return capability.Typed(NameLambdaFunction,
		"Get detailed information about a Lambda function including its "+
			"configuration, memory, timeout, and state. Use this to understand "+
			"function settings related to an alarm.",
		func(ctx context.Context, p lambdaParams) (capability.Payload, error) {
			out, err := api.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: aws.String(p.FunctionName)})
			if err != nil {
				return capability.Failure(err), nil
			}
			cfg := out.Configuration
			if cfg == nil {
				return capability.Failure(fmt.Errorf("function %s returned no configuration", p.FunctionName)), nil
			}

			envNames := []string{}
			if cfg.Environment != nil {
				for k := range cfg.Environment.Variables {
					envNames = append(envNames, k)
				}
				sort.Strings(envNames)
			}

			return capability.Success(map[string]any{
				"function": map[string]any{
					"name":                  aws.ToString(cfg.FunctionName),
					"arn":                   aws.ToString(cfg.FunctionArn),
					"runtime":               string(cfg.Runtime),
					"handler":               aws.ToString(cfg.Handler),
					"memory_mb":             aws.ToInt32(cfg.MemorySize),
					"timeout_seconds":       aws.ToInt32(cfg.Timeout),
					"state":                 string(cfg.State),
					"last_modified":         aws.ToString(cfg.LastModified),
					"environment_variables": envNames,
				},
			}), nil
		})
}
