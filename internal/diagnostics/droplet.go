package diagnostics

import (
	"context"

	"github.com/soyeahso/alarmhound/internal/capability"
)

type dropletParams struct {
	DropletID int `json:"droplet_id" jsonschema_description:"The numeric DigitalOcean droplet ID"`
}

// Droplet describes a DigitalOcean droplet, for alarms on hosts outside AWS.
func Droplet(api DropletsAPI) capability.Capability {
	return capability.Typed(NameDroplet,
		"Get information about a DigitalOcean droplet including its status, size, "+
			"region, and network addresses.",
		func(ctx context.Context, p dropletParams) (capability.Payload, error) {
			if p.DropletID <= 0 {
				return capability.Failuref("droplet_id is required"), nil
			}
			d, _, err := api.Get(ctx, p.DropletID)
			if err != nil {
				return capability.Failuref("Failed to get droplet: %v", err), nil
			}
			if d == nil {
				return capability.Failuref("Droplet %d not found", p.DropletID), nil
			}

			publicIP, _ := d.PublicIPv4()
			privateIP, _ := d.PrivateIPv4()
			var region string
			if d.Region != nil {
				region = d.Region.Slug
			}
			tags := d.Tags
			if tags == nil {
				tags = []string{}
			}

			return capability.Success(map[string]any{
				"droplet": map[string]any{
					"id":         d.ID,
					"name":       d.Name,
					"status":     d.Status,
					"size":       d.SizeSlug,
					"region":     region,
					"memory_mb":  d.Memory,
					"vcpus":      d.Vcpus,
					"disk_gb":    d.Disk,
					"public_ip":  publicIP,
					"private_ip": privateIP,
					"created_at": d.Created,
					"tags":       tags,
				},
			}), nil
		})
}
