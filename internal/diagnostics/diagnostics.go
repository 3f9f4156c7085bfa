// Package diagnostics provides the read-only capabilities the investigator
// offers to the reasoning service: metric retrieval and resource inspection.
//
// Each capability wraps a narrow slice of an SDK client so tests can swap in
// fakes. SDK failures come back as error payloads, never as Go errors.
package diagnostics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/digitalocean/godo"
	"golang.org/x/oauth2"

	"github.com/soyeahso/alarmhound/internal/capability"
)

// Capability names.
const (
	NameCloudWatchMetrics = "get_cloudwatch_metrics"
	NameEC2Instance       = "describe_ec2_instance"
	NameRDSInstance       = "describe_rds_instance"
	NameLambdaFunction    = "describe_lambda_function"
	NameECSService        = "describe_ecs_service"
	NameDroplet           = "describe_droplet"
)

// AllNames lists every capability this package can provide.
var AllNames = []string{
	NameCloudWatchMetrics,
	NameEC2Instance,
	NameRDSInstance,
	NameLambdaFunction,
	NameECSService,
	NameDroplet,
}

type CloudWatchAPI interface {
	GetMetricData(ctx context.Context, in *cloudwatch.GetMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

type EC2API interface {
	DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

type RDSAPI interface {
	DescribeDBInstances(ctx context.Context, in *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

type LambdaAPI interface {
	GetFunction(ctx context.Context, in *lambda.GetFunctionInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error)
}

type ECSAPI interface {
	DescribeServices(ctx context.Context, in *ecs.DescribeServicesInput, optFns ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error)
}

// DropletsAPI is satisfied by godo's DropletsService.
type DropletsAPI interface {
	Get(ctx context.Context, dropletID int) (*godo.Droplet, *godo.Response, error)
}

// Clients holds the SDK clients capabilities are built from. A nil field
// leaves the matching capability out of the catalog.
type Clients struct {
	CloudWatch CloudWatchAPI
	EC2        EC2API
	RDS        RDSAPI
	Lambda     LambdaAPI
	ECS        ECSAPI
	Droplets   DropletsAPI

	// Now is the clock for metric windows; nil uses time.Now.
	Now func() time.Time
}

// NewAWSClients builds the AWS clients for one region-scoped config. When
// doToken is set the DigitalOcean droplet client is added too.
func NewAWSClients(cfg aws.Config, doToken string) Clients {
	c := Clients{
		CloudWatch: cloudwatch.NewFromConfig(cfg),
		EC2:        ec2.NewFromConfig(cfg),
		RDS:        rds.NewFromConfig(cfg),
		Lambda:     lambda.NewFromConfig(cfg),
		ECS:        ecs.NewFromConfig(cfg),
	}
	if doToken != "" {
		c.Droplets = NewDropletClient(doToken).Droplets
	}
	return c
}

// NewDropletClient creates a godo client authenticated with a static token.
func NewDropletClient(token string) *godo.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return godo.NewClient(oauth2.NewClient(context.Background(), ts))
}

// NewCatalog registers the capabilities backed by c. When enabled is non-empty
// only the named capabilities are registered.
func NewCatalog(c Clients, enabled []string) *capability.Catalog {
	allow := func(string) bool { return true }
	if len(enabled) > 0 {
		set := make(map[string]bool, len(enabled))
		for _, n := range enabled {
			set[n] = true
		}
		allow = func(n string) bool { return set[n] }
	}

	now := c.Now
	if now == nil {
		now = time.Now
	}

	cat := capability.NewCatalog()
	add := func(name string, present bool, build func() capability.Capability) {
		if present && allow(name) {
			cat.Register(build())
		}
	}

	add(NameCloudWatchMetrics, c.CloudWatch != nil, func() capability.Capability { return CloudWatchMetrics(c.CloudWatch, now) })
	add(NameEC2Instance, c.EC2 != nil, func() capability.Capability { return EC2Instance(c.EC2) })
	add(NameRDSInstance, c.RDS != nil, func() capability.Capability { return RDSInstance(c.RDS) })
	add(NameLambdaFunction, c.Lambda != nil, func() capability.Capability { return LambdaFunction(c.Lambda) })
	add(NameECSService, c.ECS != nil, func() capability.Capability { return ECSService(c.ECS) })
	add(NameDroplet, c.Droplets != nil, func() capability.Capability { return Droplet(c.Droplets) })

	return cat
}
