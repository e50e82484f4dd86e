// Command webhook-replay re-delivers a payment gateway notification to the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/Venus2Mice/e-commerce-website/internal/httpx"
	"github.com/Venus2Mice/e-commerce-website/internal/webhook"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "API base URL")
	gateway := flag.String("gateway", "", "gateway / bank name")
	account := flag.String("account", "", "account number")
	amount := flag.String("amount", "", "transfer amount")
	desc := flag.String("desc", "", "transfer description carrying the bill id")
	kind := flag.String("type", webhook.TransferIn, "transfer type (in|out)")
	flag.Parse()

	n := webhook.Notification{
		Gateway:       *gateway,
		AccountNumber: *account,
		Description:   *desc,
		TransferType:  *kind,
	}
	if *amount != "" {
		a, err := decimal.NewFromString(*amount)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad -amount: %v\n", err)
			os.Exit(2)
		}
		n.TransferAmount = &a
	}

	code, env, err := replay(resty.New().SetTimeout(10*time.Second), *addr, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("HTTP %d EC=%d EM=%q DT=%v\n", code, env.EC, env.EM, env.DT)
	if env.EC != 0 {
		os.Exit(1)
	}
}

func replay(client *resty.Client, addr string, n webhook.Notification) (int, httpx.Envelope, error) {
	var env httpx.Envelope
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(n).
		SetResult(&env).
		Post(addr + "/api/hooks/payment")
	if err != nil {
		return 0, env, err
	}
	if resp.IsError() {
		return resp.StatusCode(), env, fmt.Errorf("unexpected status %s", resp.Status())
	}
	return resp.StatusCode(), env, nil
}
