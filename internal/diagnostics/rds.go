package diagnostics

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/soyeahso/alarmhound/internal/capability"
)

type rdsParams struct {
	DBInstanceIdentifier string `json:"db_instance_identifier" jsonschema_description:"The RDS DB instance identifier"`
}

// RDSInstance describes a single RDS database instance.
func RDSInstance(api RDSAPI) capability.Capability {
	return capability.Typed(NameRDSInstance,
		"Get detailed information about an RDS database instance including its "+
			"status, configuration, storage, and endpoint. Use this to understand "+
			"database health and configuration related to an alarm.",
		func(ctx context.Context, p rdsParams) (capability.Payload, error) {
			out, err := api.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
				DBInstanceIdentifier: aws.String(p.DBInstanceIdentifier),
			})
			if err != nil {
				return capability.Failure(err), nil
			}
			if len(out.DBInstances) == 0 {
				return capability.Failuref("DB instance %s not found", p.DBInstanceIdentifier), nil
			}

			db := out.DBInstances[0]
			var address string
			var port int32
			if db.Endpoint != nil {
				address = aws.ToString(db.Endpoint.Address)
				port = aws.ToInt32(db.Endpoint.Port)
			}

			return capability.Success(map[string]any{
				"db_instance": map[string]any{
					"identifier":           aws.ToString(db.DBInstanceIdentifier),
					"instance_class":       aws.ToString(db.DBInstanceClass),
					"engine":               aws.ToString(db.Engine),
					"engine_version":       aws.ToString(db.EngineVersion),
					"status":               aws.ToString(db.DBInstanceStatus),
					"allocated_storage_gb": aws.ToInt32(db.AllocatedStorage),
					"storage_type":         aws.ToString(db.StorageType),
					"multi_az":             aws.ToBool(db.MultiAZ),
					"endpoint":             address,
					"port":                 port,
					"arn":                  aws.ToString(db.DBInstanceArn),
				},
			}), nil
		})
}
