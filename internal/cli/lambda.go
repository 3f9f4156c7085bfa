package cli

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/soyeahso/alarmhound/internal/app"
)

func newLambdaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda function handling EventBridge alarm events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.Build(context.Background(), cfg, log, app.Options{})
			if err != nil {
				return err
			}
			defer svc.Close()

			lambda.Start(lambdaHandler(svc))
			return nil
		},
	}
}

// lambdaHandler adapts the service to the Lambda runtime. Failures are
// reported in the response envelope, never as invocation errors.
func lambdaHandler(svc *app.Service) func(ctx context.Context, event json.RawMessage) (app.Response, error) {
	return func(ctx context.Context, event json.RawMessage) (app.Response, error) {
		return svc.Respond(ctx, event), nil
	}
}
