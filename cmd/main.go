package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/app"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
)

func main() {
	issueFor := flag.String("issue-token", "", "print a bearer token for this identity and exit")
	issueAdmin := flag.Bool("admin", false, "with -issue-token, grant the admin role")
	flag.Parse()

	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if *issueFor != "" {
		role := types.RoleParticipant
		if *issueAdmin {
			role = types.RoleAdmin
		}
		token, err := a.Services.Auth.IssueToken(*issueFor, role)
		if err != nil {
			a.Log.Error("Issue token failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	a.Log.Info("Server starting", "addr", a.Cfg.HTTPAddr)
	if err := a.Run(ctx); err != nil {
		a.Log.Error("Server stopped with error", "error", err, "uptime", time.Since(start).String())
		a.Close()
		os.Exit(1)
	}
	a.Log.Info("Server stopped", "uptime", time.Since(start).String())
}
