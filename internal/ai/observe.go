package ai

import "context"

// CallReporter receives the purpose and outcome of every model call.
type CallReporter func(purpose, outcome string)

// WithReporter decorates client so each Generate reports an "ok" or "error"
// outcome under the request's purpose label. A nil client or reporter
// returns client unchanged.
func WithReporter(client Client, report CallReporter) Client {
	if client == nil || report == nil {
		return client
	}
	return &reportingClient{client: client, report: report}
}

type reportingClient struct {
	client Client
	report CallReporter
}

func (c *reportingClient) Generate(ctx context.Context, req Request) (string, error) {
	out, err := c.client.Generate(ctx, req)
	purpose := req.Purpose
	if purpose == "" {
		purpose = "geral"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.report(purpose, outcome)
	return out, err
}
