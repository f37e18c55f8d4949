// README: suggest command; runs one slot suggestion locally and prints the candidates as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slotwise/internal/config"
	"slotwise/internal/logger"
	"slotwise/internal/modules/scheduling"
	"slotwise/internal/types"
)

type suggestFlags struct {
	orgID    string
	day      string
	duration int
	risk     string
	base     string
	lastJob  string
	target   string
}

func newSuggestCmd(cfgPath *string) *cobra.Command {
	var f suggestFlags
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest appointment slots for one job",
		Example: "  slotwise suggest --org acme --day 2025-09-15 --duration 60 --risk med \\\n" +
			"    --base 52.3702,4.8952 --target 52.3720,4.9000",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runSuggest(cfg, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&f.orgID, "org", "default", "organization id")
	cmd.Flags().StringVar(&f.day, "day", "", "day in YYYY-MM-DD")
	cmd.Flags().IntVar(&f.duration, "duration", 0, "job duration in minutes")
	cmd.Flags().StringVar(&f.risk, "risk", string(scheduling.RiskMed), "risk tier: low, med, high")
	cmd.Flags().StringVar(&f.base, "base", "", "technician base as lat,lng")
	cmd.Flags().StringVar(&f.lastJob, "last-job", "", "last job location as lat,lng")
	cmd.Flags().StringVar(&f.target, "target", "", "job location as lat,lng")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("duration")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func runSuggest(cfg *config.Config, f suggestFlags, out, errOut io.Writer) error {
	policy, err := cfg.Scheduling.Policy()
	if err != nil {
		return err
	}
	orgPolicies, err := cfg.Scheduling.OrgPolicies()
	if err != nil {
		return err
	}
	policies, err := scheduling.NewStaticPolicies(policy, orgPolicies)
	if err != nil {
		return err
	}
	svc, err := scheduling.NewService(policy,
		scheduling.WithPolicySource(policies),
		scheduling.WithLogger(logger.NewWithWriter(errOut, "cli", cfg.Logging.Level, "console")),
	)
	if err != nil {
		return err
	}

	req := scheduling.Request{
		OrgID:           types.ID(f.orgID),
		Day:             f.day,
		DurationMinutes: f.duration,
		Risk:            scheduling.RiskTier(f.risk),
	}
	if req.Target, err = parsePoint("target", f.target); err != nil {
		return err
	}
	if f.base != "" {
		p, err := parsePoint("base", f.base)
		if err != nil {
			return err
		}
		req.Base = &p
	}
	if f.lastJob != "" {
		p, err := parsePoint("last-job", f.lastJob)
		if err != nil {
			return err
		}
		req.LastJob = &p
	}

	candidates, err := svc.SuggestSlots(req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(candidates)
}

// parsePoint reads "lat,lng". Range checks are left to the scheduler.
func parsePoint(flag, v string) (types.Point, error) {
	latStr, lngStr, ok := strings.Cut(v, ",")
	if !ok {
		return types.Point{}, fmt.Errorf("--%s: want lat,lng, got %q", flag, v)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("--%s: latitude: %w", flag, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("--%s: longitude: %w", flag, err)
	}
	return types.Point{Lat: lat, Lng: lng}, nil
}
