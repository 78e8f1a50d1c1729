// Command cancel-followups cancels every PENDING follow-up for a lead,
// for an operator pulling a lead out of the automated cadence by hand
// (opted out over another channel, escalated to a human rep, etc).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sdrsolar/internal/followup"
	"sdrsolar/internal/leads/repository"
	"sdrsolar/platform/config"
	"sdrsolar/platform/db"
	"sdrsolar/platform/logger"
)

func main() {
	phone := flag.String("lead", "", "phone number of the lead to cancel follow-ups for")
	flag.Parse()
	if *phone == "" {
		fmt.Fprintln(os.Stderr, "usage: cancel-followups -lead=<phone>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(cfg.Env)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	leadsRepo := repository.New(pool)
	lead, err := leadsRepo.GetLeadByPhone(ctx, *phone)
	if err != nil {
		log.Error("lead not found", "phone", *phone, "error", err)
		os.Exit(1)
	}

	followUpRepo := followup.NewRepository(pool)
	canceled, err := followUpRepo.CancelPendingForLead(ctx, lead.ID)
	if err != nil {
		log.Error("failed to cancel follow-ups", "lead_id", lead.ID, "error", err)
		os.Exit(1)
	}
	log.Info("follow-ups canceled", "lead_id", lead.ID, "phone", *phone, "canceled", canceled)
}
