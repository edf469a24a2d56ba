package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/loanmesh"
)

var (
	chatCustomer string
	chatVerbose  bool
)

func init() {
	chatCmd.Flags().StringVar(&chatCustomer, "customer", "", "customer id to start with (e.g. CUST001)")
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "print stage and log output")
}

// chatCmd runs an interactive terminal conversation
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the loan assistant in the terminal",
	Long: `Chat with the loan assistant in the terminal.

Type a message and press enter. Commands:
  /state   show stage, status and key record fields
  /quit    leave the chat

Examples:
  # Anonymous session
  loanmesh chat

  # Known customer from the demo book
  loanmesh chat --customer CUST001`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logOut := io.Discard
		if chatVerbose {
			logOut = cmd.ErrOrStderr()
		}
		a, err := buildApp(cmd.Context(), logOut)
		if err != nil {
			return err
		}
		defer a.Close()
		return chat(cmd.Context(), a.mesh, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func chat(ctx context.Context, mesh *loanmesh.LoanMesh, in io.Reader, out io.Writer) error {
	id, err := mesh.CreateSession(ctx, chatCustomer)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "session %s (type /quit to leave)\n", id)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/state":
			if err := printState(ctx, mesh, id, out); err != nil {
				return err
			}
			continue
		}

		res, err := mesh.ProcessMessage(ctx, id, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", res.Response)
		if chatVerbose {
			fmt.Fprintf(out, "  [stage=%s status=%s hops=%v ok=%t]\n", res.Stage, res.Status, res.Hops, res.OK)
		}
	}
}

func printState(ctx context.Context, mesh *loanmesh.LoanMesh, id string, out io.Writer) error {
	rec, err := mesh.GetSession(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "stage: %s\nstatus: %s\ncustomer: %s %s\namount: %.0f\n",
		rec.Stage, rec.Status, rec.Customer.ID, rec.Customer.Name, rec.Loan.RequestedAmount)
	if o := rec.Sales.SelectedOffer; o != nil {
		fmt.Fprintf(out, "offer: %d months at %.2f%%, EMI %.2f\n", o.TenureMonths, o.InterestRate, o.MonthlyEMI)
	}
	v := rec.Verification
	fmt.Fprintf(out, "verified: phone=%t identity=%t address=%t\n", v.PhoneVerified, v.KYCVerified, v.AddressVerified)
	if rec.Underwriting.Decision != "" {
		fmt.Fprintf(out, "decision: %s\n", rec.Underwriting.Decision)
	}
	if rec.Sanction.ReferenceNumber != "" {
		fmt.Fprintf(out, "sanction: %s\n", rec.Sanction.ReferenceNumber)
	}
	if rec.LastError != "" {
		fmt.Fprintf(out, "last error: %s\n", rec.LastError)
	}
	return nil
}
