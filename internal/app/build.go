package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/soyeahso/alarmhound/internal/capability"
	"github.com/soyeahso/alarmhound/internal/config"
	"github.com/soyeahso/alarmhound/internal/diagnostics"
	"github.com/soyeahso/alarmhound/internal/hooks"
	"github.com/soyeahso/alarmhound/internal/llm"
	"github.com/soyeahso/alarmhound/internal/logging"
	"github.com/soyeahso/alarmhound/internal/metrics"
	"github.com/soyeahso/alarmhound/internal/notify"
	"github.com/soyeahso/alarmhound/internal/store"
)

// Options adjust what Build wires.
type Options struct {
	NoStore  bool // skip the report database
	NoNotify bool // skip every notifier
}

// Build wires a Service from configuration: AWS SDK config, the reasoning
// client chain, per-region diagnostic catalogs, hooks, metrics, the report
// store and notifiers.
func Build(ctx context.Context, cfg config.Config, log *logging.Logger, opts Options) (*Service, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	var bedrock llm.ConverseAPI
	if cfg.Model.Provider == "" || cfg.Model.Provider == "bedrock" {
		bedrock = bedrockruntime.NewFromConfig(awsCfg)
	}
	client, err := llm.FromConfig(cfg.Model, bedrock, log.Sub("llm"))
	if err != nil {
		return nil, fmt.Errorf("building model client: %w", err)
	}

	m := metrics.New()
	hm := hooks.NewManager(log)
	m.Attach(hm)

	deps := Deps{
		Client:   m.InstrumentClient(client),
		Catalogs: AWSCatalogs(awsCfg, cfg.Capabilities),
		Hooks:    hm,
		Metrics:  m,
	}

	if !opts.NoStore && !cfg.Store.Disabled {
		path := cfg.Store.Path
		if path == "" {
			paths, err := config.ResolvePaths()
			if err != nil {
				return nil, fmt.Errorf("resolving paths: %w", err)
			}
			path = paths.ReportsDB
		}
		db, err := store.Open(path, log)
		if err != nil {
			return nil, fmt.Errorf("opening report store: %w", err)
		}
		deps.Reports = store.NewReportStore(db)
		deps.Closers = append(deps.Closers, db.Close)
	}

	if !opts.NoNotify {
		multi, err := buildNotifiers(ctx, cfg.Notify, awsCfg, hm, log)
		if err != nil {
			for _, c := range deps.Closers {
				_ = c()
			}
			return nil, err
		}
		if multi.Len() > 0 {
			deps.Notifier = multi
			deps.Closers = append(deps.Closers, multi.Close)
		}
	}

	return New(cfg, deps, log), nil
}

// LoadAWSConfig resolves SDK credentials and the default region.
func LoadAWSConfig(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return awsCfg, nil
}

// AWSCatalogs returns a factory that points the diagnostic clients at the
// alarm's region.
func AWSCatalogs(base aws.Config, caps config.CapabilitiesConfig) CatalogFactory {
	return func(_ context.Context, region string) (*capability.Catalog, error) {
		regional := base.Copy()
		if region != "" {
			regional.Region = region
		}
		clients := diagnostics.NewAWSClients(regional, caps.DigitalOceanToken)
		return diagnostics.NewCatalog(clients, caps.Enabled), nil
	}
}

func buildNotifiers(ctx context.Context, cfg config.NotifyConfig, awsCfg aws.Config, hm *hooks.Manager, log *logging.Logger) (*notify.Multi, error) {
	var ns []notify.Notifier
	if cfg.SNS != nil && cfg.SNS.TopicARN != "" {
		ns = append(ns, notify.NewSNSNotifier(sns.NewFromConfig(awsCfg), cfg.SNS.TopicARN))
	}
	if cfg.Gmail != nil {
		g, err := notify.DialGmail(ctx, *cfg.Gmail)
		if err != nil {
			return nil, fmt.Errorf("gmail notifier: %w", err)
		}
		ns = append(ns, g)
	}
	if cfg.IRC != nil {
		ns = append(ns, notify.NewIRCNotifier(*cfg.IRC, log))
	}
	return notify.NewMulti(log, hm, ns...), nil
}
