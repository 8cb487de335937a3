package main

import (
	"crash_backend/internal/service/engine"
	"crash_backend/pkg/fair"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// newVerifyCmd - пересчёт точки краха по раскрытому сиду, без доступа к серверу
func newVerifyCmd() *cobra.Command {
	var (
		seed     string
		salt     string
		hash     string
		round    uint64
		edge     float64
		maxCrash string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute a round's crash point from its revealed server seed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if seed == "" || round == 0 {
				return errors.New("--seed and --round are required")
			}
			if hash != "" && !fair.VerifySeed(seed, hash) {
				return fmt.Errorf("seed does not match hash %s", hash)
			}
			limit, err := decimal.NewFromString(maxCrash)
			if err != nil {
				return fmt.Errorf("--max: %w", err)
			}

			u := fair.DeriveFloat64(seed, salt, round)
			crash := engine.CrashPoint(edge, u, limit)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "round:       %d\n", round)
			fmt.Fprintf(out, "seed hash:   %s\n", fair.SeedHash(seed))
			fmt.Fprintf(out, "u:           %.16f\n", u)
			fmt.Fprintf(out, "crash point: %s\n", crash.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&seed, "seed", "", "revealed server seed")
	cmd.Flags().StringVar(&salt, "salt", "", "fairness salt, the round's published \"salt\"")
	cmd.Flags().StringVar(&hash, "hash", "", "published seed hash to check against")
	cmd.Flags().Uint64Var(&round, "round", 0, "round id")
	cmd.Flags().Float64Var(&edge, "edge", 0.97, "house edge factor, the round's published \"house_edge\"")
	cmd.Flags().StringVar(&maxCrash, "max", "0", "crash point cap, the round's published \"max_crash_point\" (0 for none)")
	return cmd
}
