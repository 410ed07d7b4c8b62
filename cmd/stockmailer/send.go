package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
	"github.com/ahmethakanbesel/stockmailer/internal/report"
	"github.com/ahmethakanbesel/stockmailer/internal/validation"
)

var sendCmd = &cobra.Command{
	Use:     "send",
	Short:   "Validate one request and mail its report synchronously",
	Example: "  stockmailer send --symbol AAPL --start 2024-01-01 --end 2024-01-31 --email me@example.com",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c := wire(cfg)

		flags := cmd.Flags()
		symbol, _ := flags.GetString("symbol")
		start, _ := flags.GetString("start")
		end, _ := flags.GetString("end")
		email, _ := flags.GetString("email")

		in := validation.Input{Symbol: symbol, StartDate: start, EndDate: end, Email: email}
		if err := c.validator.Check(cmd.Context(), in); err != nil {
			return describe(err)
		}

		dates := c.validator.Dates()
		startDate, _ := dates.ParseDate(start)
		endDate, _ := dates.ParseDate(end)

		res, err := c.pipeline.Run(cmd.Context(), report.Request{
			Symbol:    symbol,
			StartDate: startDate,
			EndDate:   endDate,
			Email:     email,
		})
		if err != nil {
			return describe(err)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "delivered %s report to %s (message id %s)\n", symbol, email, res.MessageID)
		return nil
	},
}

func init() {
	f := sendCmd.Flags()
	f.String("symbol", "", "ticker symbol, e.g. AAPL")
	f.String("start", "", "first day, YYYY-MM-DD")
	f.String("end", "", "last day, YYYY-MM-DD")
	f.String("email", "", "recipient address")
	for _, name := range []string{"symbol", "start", "end", "email"} {
		_ = sendCmd.MarkFlagRequired(name)
	}
}

// describe adds field messages and the failing stage to err.
func describe(err error) error {
	var ae *apperror.AppError
	if errors.As(err, &ae) && len(ae.Fields()) > 0 {
		return fmt.Errorf("%s: %v", ae.Message(), ae.Fields())
	}
	var se *report.StageError
	if errors.As(err, &se) {
		return fmt.Errorf("%s failed (%s): %w", se.Stage, apperror.CodeOf(se.Err), se.Err)
	}
	return err
}
