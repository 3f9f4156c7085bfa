package diagnostics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/digitalocean/godo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 29, 10, 0, 0, 0, time.UTC)

// --- fakes ---

type fakeCloudWatch struct {
	in  *cloudwatch.GetMetricDataInput
	out *cloudwatch.GetMetricDataOutput
	err error
}

func (f *fakeCloudWatch) GetMetricData(_ context.Context, in *cloudwatch.GetMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error) {
	f.in = in
	return f.out, f.err
}

type fakeEC2 struct {
	out *ec2.DescribeInstancesOutput
	err error
}

func (f *fakeEC2) DescribeInstances(context.Context, *ec2.DescribeInstancesInput, ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return f.out, f.err
}

type fakeRDS struct {
	out *rds.DescribeDBInstancesOutput
	err error
}

func (f *fakeRDS) DescribeDBInstances(context.Context, *rds.DescribeDBInstancesInput, ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
	return f.out, f.err
}

type fakeLambda struct {
	out *lambda.GetFunctionOutput
	err error
}

func (f *fakeLambda) GetFunction(context.Context, *lambda.GetFunctionInput, ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error) {
	return f.out, f.err
}

type fakeECS struct {
	in  *ecs.DescribeServicesInput
	out *ecs.DescribeServicesOutput
	err error
}

func (f *fakeECS) DescribeServices(_ context.Context, in *ecs.DescribeServicesInput, _ ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error) {
	f.in = in
	return f.out, f.err
}

type fakeDroplets struct {
	droplet *godo.Droplet
	err     error
}

func (f *fakeDroplets) Get(context.Context, int) (*godo.Droplet, *godo.Response, error) {
	return f.droplet, nil, f.err
}

// --- CloudWatch ---

func TestCloudWatchMetrics(t *testing.T) {
	fake := &fakeCloudWatch{out: &cloudwatch.GetMetricDataOutput{
		MetricDataResults: []cwtypes.MetricDataResult{{
			Timestamps: []time.Time{fixedNow.Add(-10 * time.Minute), fixedNow.Add(-5 * time.Minute)},
			Values:     []float64{80, 90},
		}},
	}}
	cp := CloudWatchMetrics(fake, func() time.Time { return fixedNow })

	out, err := cp.Invoke(context.Background(), map[string]any{
		"namespace":   "AWS/EC2",
		"metric_name": "CPUUtilization",
		"dimensions":  map[string]any{"InstanceId": "i-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "CPUUtilization", out["metric_name"])
	assert.Len(t, out["datapoints"], 2)
	stats := out["statistics"].(map[string]any)
	assert.Equal(t, 80.0, stats["min"])
	assert.Equal(t, 90.0, stats["max"])
	assert.Equal(t, 85.0, stats["avg"])
	assert.Equal(t, 2, stats["count"])

	require.NotNil(t, fake.in)
	q := fake.in.MetricDataQueries[0]
	assert.Equal(t, "m1", aws.ToString(q.Id))
	assert.Equal(t, int32(300), aws.ToInt32(q.MetricStat.Period))
	assert.Equal(t, "Average", aws.ToString(q.MetricStat.Stat))
	assert.Equal(t, time.Hour, fake.in.EndTime.Sub(*fake.in.StartTime))
}

func TestCloudWatchMetricsCustomWindow(t *testing.T) {
	fake := &fakeCloudWatch{out: &cloudwatch.GetMetricDataOutput{}}
	cp := CloudWatchMetrics(fake, func() time.Time { return fixedNow })

	out, err := cp.Invoke(context.Background(), map[string]any{
		"namespace": "AWS/RDS", "metric_name": "FreeStorageSpace",
		"dimensions": map[string]any{}, "period_minutes": 30,
	})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, fake.in.EndTime.Sub(*fake.in.StartTime))

	assert.Equal(t, "success", out["status"])
	assert.Empty(t, out["datapoints"])
	assert.Equal(t, map[string]any{}, out["statistics"])
}

func TestCloudWatchMetricsErrors(t *testing.T) {
	cp := CloudWatchMetrics(&fakeCloudWatch{err: errors.New("AccessDenied")}, time.Now)

	out, err := cp.Invoke(context.Background(), map[string]any{
		"namespace": "AWS/EC2", "metric_name": "CPUUtilization", "dimensions": map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "AccessDenied", out["error"])

	out, err = cp.Invoke(context.Background(), map[string]any{"namespace": "AWS/EC2"})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
}

// --- EC2 ---

func TestEC2Instance(t *testing.T) {
	launched := fixedNow.Add(-24 * time.Hour)
	cp := EC2Instance(&fakeEC2{out: &ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: []ec2types.Instance{{
			InstanceId:       aws.String("i-1"),
			InstanceType:     ec2types.InstanceTypeT3Micro,
			State:            &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
			LaunchTime:       &launched,
			PrivateIpAddress: aws.String("10.0.0.5"),
			VpcId:            aws.String("vpc-1"),
			SubnetId:         aws.String("subnet-1"),
			Tags: []ec2types.Tag{
				{Key: aws.String("Name"), Value: aws.String("web-1")},
				{Key: aws.String("env"), Value: aws.String("prod")},
			},
		}}}},
	}})

	out, err := cp.Invoke(context.Background(), map[string]any{"instance_id": "i-1"})
	require.NoError(t, err)
	require.Equal(t, "success", out["status"])

	inst := out["instance"].(map[string]any)
	assert.Equal(t, "i-1", inst["instance_id"])
	assert.Equal(t, "t3.micro", inst["instance_type"])
	assert.Equal(t, "running", inst["state"])
	assert.Equal(t, "web-1", inst["name"])
	assert.Equal(t, map[string]string{"Name": "web-1", "env": "prod"}, inst["tags"])
	assert.Equal(t, "", inst["public_ip"])
}

func TestEC2InstanceNotFound(t *testing.T) {
	cp := EC2Instance(&fakeEC2{out: &ec2.DescribeInstancesOutput{}})
	out, err := cp.Invoke(context.Background(), map[string]any{"instance_id": "i-404"})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Instance i-404 not found", out["error"])
}

// --- RDS ---

func TestRDSInstance(t *testing.T) {
	cp := RDSInstance(&fakeRDS{out: &rds.DescribeDBInstancesOutput{
		DBInstances: []rdstypes.DBInstance{{
			DBInstanceIdentifier: aws.String("prod-db"),
			DBInstanceClass:      aws.String("db.r6g.large"),
			Engine:               aws.String("postgres"),
			EngineVersion:        aws.String("16.1"),
			DBInstanceStatus:     aws.String("available"),
			AllocatedStorage:     aws.Int32(100),
			StorageType:          aws.String("gp3"),
			MultiAZ:              aws.Bool(true),
			Endpoint:             &rdstypes.Endpoint{Address: aws.String("prod-db.example"), Port: aws.Int32(5432)},
			DBInstanceArn:        aws.String("arn:aws:rds:us-east-1:1:db:prod-db"),
		}},
	}})

	out, err := cp.Invoke(context.Background(), map[string]any{"db_instance_identifier": "prod-db"})
	require.NoError(t, err)
	require.Equal(t, "success", out["status"])

	db := out["db_instance"].(map[string]any)
	assert.Equal(t, "prod-db", db["identifier"])
	assert.Equal(t, int32(100), db["allocated_storage_gb"])
	assert.Equal(t, true, db["multi_az"])
	assert.Equal(t, int32(5432), db["port"])
}

func TestRDSInstanceNotFound(t *testing.T) {
	cp := RDSInstance(&fakeRDS{out: &rds.DescribeDBInstancesOutput{}})
	out, err := cp.Invoke(context.Background(), map[string]any{"db_instance_identifier": "gone"})
	require.NoError(t, err)
	assert.Equal(t, "DB instance gone not found", out["error"])
}

// --- Lambda ---

func TestLambdaFunctionHidesEnvValues(t *testing.T) {
	cp := LambdaFunction(&fakeLambda{out: &lambda.GetFunctionOutput{
		Configuration: &lambdatypes.FunctionConfiguration{
			FunctionName: aws.String("my-function"),
			Runtime:      lambdatypes.RuntimePython312,
			Handler:      aws.String("index.handler"),
			MemorySize:   aws.Int32(256),
			Timeout:      aws.Int32(30),
			State:        lambdatypes.StateActive,
			Environment: &lambdatypes.EnvironmentResponse{Variables: map[string]string{
				"DB_PASSWORD": "hunter2",
				"API_URL":     "https://example.com",
			}},
		},
	}})

	out, err := cp.Invoke(context.Background(), map[string]any{"function_name": "my-function"})
	require.NoError(t, err)
	require.Equal(t, "success", out["status"])

	fn := out["function"].(map[string]any)
	assert.Equal(t, "my-function", fn["name"])
	assert.Equal(t, int32(256), fn["memory_mb"])
	assert.Equal(t, []string{"API_URL", "DB_PASSWORD"}, fn["environment_variables"])
	assert.NotContains(t, fn, "hunter2")
}

func TestLambdaFunctionError(t *testing.T) {
	cp := LambdaFunction(&fakeLambda{err: errors.New("ResourceNotFoundException: Function not found")})
	out, err := cp.Invoke(context.Background(), map[string]any{"function_name": "nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "Function not found")
}

// --- ECS ---

func TestECSService(t *testing.T) {
	fake := &fakeECS{out: &ecs.DescribeServicesOutput{
		Services: []ecstypes.Service{{
			ServiceName:  aws.String("api"),
			Status:       aws.String("ACTIVE"),
			DesiredCount: 3,
			RunningCount: 2,
			PendingCount: 1,
			LaunchType:   ecstypes.LaunchTypeFargate,
			Deployments: []ecstypes.Deployment{{
				Id:           aws.String("ecs-svc/1"),
				Status:       aws.String("PRIMARY"),
				DesiredCount: 3,
				RunningCount: 2,
				RolloutState: ecstypes.DeploymentRolloutStateInProgress,
			}},
		}},
	}}
	cp := ECSService(fake)

	out, err := cp.Invoke(context.Background(), map[string]any{"cluster": "main", "service": "api"})
	require.NoError(t, err)
	require.Equal(t, "success", out["status"])
	assert.Equal(t, "main", aws.ToString(fake.in.Cluster))

	svc := out["service"].(map[string]any)
	assert.Equal(t, int32(2), svc["running_count"])
	assert.Equal(t, "FARGATE", svc["launch_type"])
	deps := svc["deployments"].([]map[string]any)
	require.Len(t, deps, 1)
	assert.Equal(t, "IN_PROGRESS", deps[0]["rollout_state"])
}

func TestECSServiceNotFound(t *testing.T) {
	cp := ECSService(&fakeECS{out: &ecs.DescribeServicesOutput{}})
	out, err := cp.Invoke(context.Background(), map[string]any{"cluster": "main", "service": "ghost"})
	require.NoError(t, err)
	assert.Equal(t, "Service ghost not found in cluster main", out["error"])
}

// --- Droplet ---

func TestDroplet(t *testing.T) {
	cp := Droplet(&fakeDroplets{droplet: &godo.Droplet{
		ID:       42,
		Name:     "worker-1",
		Status:   "active",
		SizeSlug: "s-2vcpu-4gb",
		Memory:   4096,
		Vcpus:    2,
		Disk:     80,
		Region:   &godo.Region{Slug: "nyc3"},
		Networks: &godo.Networks{V4: []godo.NetworkV4{
			{IPAddress: "203.0.113.7", Type: "public"},
			{IPAddress: "10.10.0.2", Type: "private"},
		}},
	}})

	out, err := cp.Invoke(context.Background(), map[string]any{"droplet_id": 42})
	require.NoError(t, err)
	require.Equal(t, "success", out["status"])

	d := out["droplet"].(map[string]any)
	assert.Equal(t, "worker-1", d["name"])
	assert.Equal(t, "nyc3", d["region"])
	assert.Equal(t, "203.0.113.7", d["public_ip"])
	assert.Equal(t, "10.10.0.2", d["private_ip"])
}

func TestDropletError(t *testing.T) {
	cp := Droplet(&fakeDroplets{err: errors.New("404 not found")})
	out, err := cp.Invoke(context.Background(), map[string]any{"droplet_id": 1})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
}

// --- Catalog ---

func TestNewCatalog(t *testing.T) {
	clients := Clients{
		CloudWatch: &fakeCloudWatch{},
		EC2:        &fakeEC2{},
		RDS:        &fakeRDS{},
		Lambda:     &fakeLambda{},
		ECS:        &fakeECS{},
	}

	cat := NewCatalog(clients, nil)
	assert.Equal(t, 5, cat.Len())
	_, ok := cat.Lookup(NameDroplet)
	assert.False(t, ok, "droplet capability needs a client")

	cat = NewCatalog(clients, []string{NameEC2Instance, NameDroplet})
	assert.Equal(t, []string{NameEC2Instance}, cat.Names())

	for _, d := range NewCatalog(clients, nil).Descriptors() {
		assert.NotEmpty(t, d.Description)
		assert.Equal(t, "object", d.Schema["type"], d.Name)
	}
}
