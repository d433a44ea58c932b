package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type job struct {
	name  string
	every time.Duration
	run   func()
}

func (bot *Bot) jobs(ctx context.Context) []job {
	jobs := []job{
		{"self-heal", bot.config.SelfHealInterval, func() { bot.publisher.SelfHeal(ctx) }},
		{"confirmation sweep", bot.config.ConfirmTimeout, func() { bot.confirms.Sweep() }},
	}
	if bot.stream != nil {
		jobs = append(jobs, job{"stream check", bot.config.Twitch.PollInterval, func() { bot.checkStream(ctx) }})
	}
	return jobs
}

func (bot *Bot) schedule(ctx context.Context) error {
	for _, job := range bot.jobs(ctx) {
		if _, err := bot.scheduler.AddFunc(fmt.Sprintf("@every %s", job.every), job.run); err != nil {
			return fmt.Errorf("could not schedule %s: %w", job.name, err)
		}
		log.Info().Msg(fmt.Sprintf("Scheduled %s every %s", job.name, job.every))
	}
	return nil
}

// cronLogger sends the scheduler logs to zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
