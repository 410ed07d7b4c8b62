package main

import (
	"net/http"

	"github.com/ahmethakanbesel/stockmailer/internal/config"
	"github.com/ahmethakanbesel/stockmailer/internal/directory"
	"github.com/ahmethakanbesel/stockmailer/internal/mailer"
	"github.com/ahmethakanbesel/stockmailer/internal/metrics"
	"github.com/ahmethakanbesel/stockmailer/internal/provider/yahoo"
	"github.com/ahmethakanbesel/stockmailer/internal/report"
	"github.com/ahmethakanbesel/stockmailer/internal/validation"
)

// components are the collaborators shared by serve and send.
type components struct {
	directory *directory.Client
	validator *validation.RequestValidator
	pipeline  *report.Pipeline
	metrics   *metrics.Metrics
}

func wire(cfg *config.Config) *components {
	hc := &http.Client{Timeout: cfg.HTTPTimeout}

	dir := directory.New(cfg.Directory.URL, directory.WithClient(hc))
	fetcher := yahoo.New(
		yahoo.WithClient(hc),
		yahoo.WithEndpoint(cfg.Provider.URL),
		yahoo.WithAPIKey(cfg.Provider.APIKey),
		yahoo.WithAPIHost(cfg.Provider.APIHost),
	)
	transport := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		Timeout:  cfg.SMTP.Timeout,
	})

	m := metrics.New()
	validator := validation.NewRequestValidator(dir, validation.NewDateRangePolicy())
	dispatcher := report.NewDispatcher(dir, transport, cfg.SMTP.From)

	return &components{
		directory: dir,
		validator: validator,
		pipeline:  report.NewPipeline(validator, fetcher, dispatcher, report.WithObserver(m)),
		metrics:   m,
	}
}
