package wsdiscovery

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscovererFor(t *testing.T) {
	d, err := discovererFor(1500)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d.Config().Timeout)

	d, err = discovererFor(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, d.Config().Timeout)
}

func TestEncodeResult(t *testing.T) {
	outcome := NewOutcome("192.168.1.10", []*url.URL{mustURL(t, "http://192.168.1.5:5357/svc")})

	var decoded struct {
		Error string
		Data  struct {
			SourceIP  string   `json:"source_ip"`
			Endpoints []string `json:"endpoints"`
		}
	}
	require.NoError(t, json.Unmarshal([]byte(encodeResult(Result{Data: outcome})), &decoded))
	assert.Empty(t, decoded.Error)
	assert.Equal(t, "192.168.1.10", decoded.Data.SourceIP)
	assert.Equal(t, []string{"http://192.168.1.5:5357/svc"}, decoded.Data.Endpoints)

	assert.JSONEq(t, `{"Error":"","Data":null}`, encodeResult(Result{}))
	assert.JSONEq(t, `{"Error":"boom","Data":null}`, encodeResult(Result{Error: "boom"}))
}
