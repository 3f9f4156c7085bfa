package diagnostics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/soyeahso/alarmhound/internal/capability"
)

const (
	defaultPeriodMinutes = 60
	metricPeriodSeconds  = 300
)

type metricsParams struct {
	Namespace     string            `json:"namespace" jsonschema_description:"AWS namespace (e.g., AWS/EC2, AWS/RDS)"`
	MetricName    string            `json:"metric_name" jsonschema_description:"Name of the metric (e.g., CPUUtilization)"`
	Dimensions    map[string]string `json:"dimensions" jsonschema_description:"Metric dimensions as key-value pairs"`
	PeriodMinutes int               `json:"period_minutes,omitempty" jsonschema:"default=60" jsonschema_description:"How many minutes of data to retrieve (default: 60)"`
}

// CloudWatchMetrics fetches 5-minute averages for one metric over a recent window.
func CloudWatchMetrics(api CloudWatchAPI, now func() time.Time) capability.Capability {
	return capability.Typed(NameCloudWatchMetrics,
		"Retrieve CloudWatch metric data for a specific metric. "+
			"Use this to analyze metric trends and values around the time of an alarm.",
		func(ctx context.Context, p metricsParams) (capability.Payload, error) {
			if p.PeriodMinutes <= 0 {
				p.PeriodMinutes = defaultPeriodMinutes
			}
			end := now().UTC()
			start := end.Add(-time.Duration(p.PeriodMinutes) * time.Minute)

			dims := make([]types.Dimension, 0, len(p.Dimensions))
			for k, v := range p.Dimensions {
				dims = append(dims, types.Dimension{Name: aws.String(k), Value: aws.String(v)})
			}

			out, err := api.GetMetricData(ctx, &cloudwatch.GetMetricDataInput{
				MetricDataQueries: []types.MetricDataQuery{{
					Id: aws.String("m1"),
					MetricStat: &types.MetricStat{
						Metric: &types.Metric{
							Namespace:  aws.String(p.Namespace),
							MetricName: aws.String(p.MetricName),
							Dimensions: dims,
						},
						Period: aws.Int32(metricPeriodSeconds),
						Stat:   aws.String("Average"),
					},
					ReturnData: aws.Bool(true),
				}},
				StartTime: aws.Time(start),
				EndTime:   aws.Time(end),
			})
			if err != nil {
				return capability.Failure(err), nil
			}

			if len(out.MetricDataResults) == 0 {
				return capability.Success(map[string]any{
					"datapoints": []map[string]any{},
					"statistics": map[string]any{},
				}), nil
			}

			res := out.MetricDataResults[0]
			n := min(len(res.Timestamps), len(res.Values))
			datapoints := make([]map[string]any, 0, n)
			for i := 0; i < n; i++ {
				datapoints = append(datapoints, map[string]any{
					"timestamp": res.Timestamps[i].Format(time.RFC3339),
					"value":     res.Values[i],
				})
			}

			return capability.Success(map[string]any{
				"namespace":   p.Namespace,
				"metric_name": p.MetricName,
				"datapoints":  datapoints,
				"statistics":  summarize(res.Values),
			}), nil
		})
}

func summarize(values []float64) map[string]any {
	if len(values) == 0 {
		return map[string]any{}
	}
	lo, hi, sum := values[0], values[0], 0.0
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
		sum += v
	}
	return map[string]any{
		"min":   lo,
		"max":   hi,
		"avg":   sum / float64(len(values)),
		"count": len(values),
	}
}
