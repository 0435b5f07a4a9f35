package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/campusswap/internal/seed"
	"go.uber.org/zap"
)

const webhookPath = "/api/payment-webhook"

const (
	ScenarioSuccessfulPayment = "successful_payment"
	ScenarioFailedPayment     = "failed_payment"
	ScenarioInvalidSignature  = "invalid_signature"
	ScenarioTamperedPayload   = "tampered_payload"
)

// Options configures a harness run. Zero values fall back to the seeded
// harness fixtures.
type Options struct {
	BaseURL string
	Secret  string
	Timeout time.Duration

	SuccessOrderID string
	FailedOrderID  string
	Amount         float64
	Metadata       *Metadata
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario   string
	Expected   int
	Got        int
	RequestID  string
	Passed     bool
	Err        error
	Elapsed    time.Duration
	ResponseOK bool
}

// Report aggregates a run.
type Report struct {
	Results []Result
	Passed  int
	Failed  int
}

func (r Report) OK() bool {
	return r.Failed == 0 && len(r.Results) > 0
}

type scenario struct {
	name     string
	expected int
	build    func(now time.Time) Payload
}

type Runner struct {
	client *http.Client
	opts   Options
	log    *zap.Logger
	now    func() time.Time
}

func NewRunner(opts Options, log *zap.Logger) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.SuccessOrderID == "" {
		opts.SuccessOrderID = seed.HarnessSuccessOrderID
	}
	if opts.FailedOrderID == "" {
		opts.FailedOrderID = seed.HarnessFailedOrderID
	}
	if opts.Amount == 0 {
		opts.Amount = 189.99
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run executes every scenario in order and never stops early.
func (r *Runner) Run(ctx context.Context) Report {
	var report Report
	for _, sc := range r.scenarios() {
		res := r.runScenario(ctx, sc)
		report.Results = append(report.Results, res)
		if res.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		r.log.Info("scenario finished",
			zap.String("scenario", res.Scenario),
			zap.Int("expected", res.Expected),
			zap.Int("got", res.Got),
			zap.Bool("passed", res.Passed),
			zap.Error(res.Err),
		)
	}
	return report
}

func (r *Runner) scenarios() []scenario {
	return []scenario{
		{
			name:     ScenarioSuccessfulPayment,
			expected: http.StatusOK,
			build: func(now time.Time) Payload {
				return Sign(r.payload("PAY_"+r.opts.SuccessOrderID, r.opts.SuccessOrderID, "SUCCESS", now), r.opts.Secret)
			},
		},
		{
			name:     ScenarioFailedPayment,
			expected: http.StatusOK,
			build: func(now time.Time) Payload {
				return Sign(r.payload("PAY_"+r.opts.FailedOrderID, r.opts.FailedOrderID, "FAILED", now), r.opts.Secret)
			},
		},
		{
			name:     ScenarioInvalidSignature,
			expected: http.StatusBadRequest,
			build: func(now time.Time) Payload {
				p := r.payload("PAY_INVALID_SIG", r.opts.SuccessOrderID, "SUCCESS", now)
				p.Signature = strings.Repeat("0", sha256HexLen)
				return p
			},
		},
		{
			name:     ScenarioTamperedPayload,
			expected: http.StatusBadRequest,
			build: func(now time.Time) Payload {
				p := Sign(r.payload("PAY_TAMPERED", r.opts.SuccessOrderID, "SUCCESS", now), r.opts.Secret)
				p.Amount = 0.01
				return p
			},
		},
	}
}

const sha256HexLen = 64

func (r *Runner) payload(paymentID, orderID, status string, now time.Time) Payload {
	return Payload{
		PaymentID: paymentID,
		OrderID:   orderID,
		Status:    status,
		Amount:    r.opts.Amount,
		Timestamp: now.Format(time.RFC3339Nano),
		Metadata:  r.opts.Metadata,
	}
}

func (r *Runner) runScenario(ctx context.Context, sc scenario) Result {
	start := time.Now()
	res := Result{Scenario: sc.name, Expected: sc.expected}

	status, body, err := r.post(ctx, sc.build(r.now()))
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}

	res.Got = status
	res.RequestID = body.RequestID
	res.ResponseOK = body.Success
	res.Passed = status == sc.expected
	if res.Passed && body.RequestID == "" {
		res.Passed = false
		res.Err = fmt.Errorf("response carried no requestId")
	}
	return res
}

type response struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

func (r *Runner) post(ctx context.Context, p Payload) (int, response, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return 0, response{}, err
	}

	url := strings.TrimRight(r.opts.BaseURL, "/") + webhookPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return 0, response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, response{}, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, response{}, fmt.Errorf("read response: %w", err)
	}
	var body response
	if err := json.Unmarshal(data, &body); err != nil {
		return resp.StatusCode, response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, body, nil
}
