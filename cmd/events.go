/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/academic-portal/apiserver/internal/mq"
	"github.com/academic-portal/apiserver/types"
	"github.com/spf13/cobra"
)

// eventsCmd tails registration events until interrupted.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Log registration events from the configured broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}

		queue, err := mq.NewFromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer queue.Close()

		log.Info().Str("backend", cfg.MQ.Backend).Str("channel", cfg.MQ.Channel).Msg("waiting for events")
		err = queue.SubscribeRegistrations(cmd.Context(), cfg.MQ.Channel,
			func(_ context.Context, event types.UserRegistered) error {
				log.Info().
					Str("user_id", event.UserID).
					Str("email", event.Email).
					Strs("courses", event.CourseIDs).
					Time("registered_at", event.RegisteredAt).
					Msg("user registered")
				return nil
			},
			func(msg mq.Message, err error) {
				log.Warn().Err(err).Str("message_id", msg.ID).Msg("skipping malformed event")
			},
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("subscribe %s: %w", cfg.MQ.Channel, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
