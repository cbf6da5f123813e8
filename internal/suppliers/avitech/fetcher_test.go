package avitech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundbridge-av/soundbridge/internal/shared"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<catalog>
  <product>
    <sku>WIIM-PRO</sku>
    <ean>6973424670217</ean>
    <name>WiiM Pro Streamer</name>
    <brand>WiiM</brand>
    <model>Pro</model>
    <category>Streamers</category>
    <description>Network audio streamer.</description>
    <price>119.00</price>
    <stock>
      <warehouse code="utrecht">12</warehouse>
      <warehouse code="antwerp">0</warehouse>
    </stock>
    <images>
      <image>https://cdn.avitech.example/wiim-pro.jpg</image>
    </images>
    <specifications>
      <spec name="inputs">Optical, Coax</spec>
    </specifications>
  </product>
  <product>
    <sku>KEF-LS50M</sku>
    <name>KEF LS50 Meta</name>
    <brand>KEF</brand>
    <model>LS50 Meta</model>
    <category>Speakers</category>
    <price>700.00</price>
    <stock>
      <warehouse code="utrecht">0</warehouse>
    </stock>
  </product>
</catalog>`

func exportServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDecodesExport(t *testing.T) {
	srv := exportServer(t, http.StatusOK, sampleExport)

	records, warnings, err := NewFetcher(srv.URL).Fetch(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, records, 2)

	first := records[0]
	require.Equal(t, "WIIM-PRO", first.SKU)
	require.Equal(t, "WiiM Pro Streamer", first.Name)
	require.Equal(t, 119.00, first.CostPrice)
	require.Equal(t, map[string]int{"utrecht": 12, "antwerp": 0}, first.Stock)
	require.Equal(t, "Optical, Coax", first.Specifications["inputs"])
	require.Equal(t, "6973424670217", first.Specifications["ean"])
	require.Equal(t, []string{"https://cdn.avitech.example/wiim-pro.jpg"}, first.Images)
}

func TestFetchUnreachableIsConnectionError(t *testing.T) {
	srv := exportServer(t, http.StatusServiceUnavailable, "")

	_, _, err := NewFetcher(srv.URL).Fetch(context.Background(), 0)
	var cerr *shared.ConnectionError
	require.ErrorAs(t, err, &cerr)
}

func TestProbeRejectsEmptyExport(t *testing.T) {
	srv := exportServer(t, http.StatusOK, `<?xml version="1.0"?><catalog></catalog>`)

	err := NewFetcher(srv.URL).Probe(context.Background())
	var cerr *shared.ConnectionError
	require.ErrorAs(t, err, &cerr)
}

func TestProbeAcceptsPopulatedExport(t *testing.T) {
	srv := exportServer(t, http.StatusOK, sampleExport)
	require.NoError(t, NewFetcher(srv.URL).Probe(context.Background()))
}
