package provider

import (
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/fennecbyte/covercache/internal/httpclient"
)

// newMockedClient returns an httpclient routed through httpmock and
// deactivates the mock when the test finishes.
func newMockedClient(t *testing.T) *httpclient.Client {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	c := httpclient.New(nil)
	c.SetTransport(httpmock.DefaultTransport)
	return c
}
