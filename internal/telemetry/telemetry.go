// Package telemetry writes one InfluxDB line-protocol point per accepted
// frame. Grounded on gnssgo's app/plot/plot.go OutPostion/OutENU, which
// build an influxdb-client-go/v2 client, get a WriteAPI, and append
// NewPointWithMeasurement points tagged with status and timed with
// SetTime; this package follows the same shape for frame events instead of
// solution samples.
package telemetry

import (
	"time"

	influxdb "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Writer appends one point per accepted frame to an InfluxDB bucket.
type Writer struct {
	client   influxdb.Client
	writeAPI api.WriteAPI
}

// Open connects to an InfluxDB server and prepares a non-blocking write
// API for the given org/bucket, mirroring plot.go's
// client.WriteAPI("idtsz", "gnssgo") call.
func Open(serverURL, authToken, org, bucket string) *Writer {
	client := influxdb.NewClient(serverURL, authToken)
	return &Writer{client: client, writeAPI: client.WriteAPI(org, bucket)}
}

// Close flushes any buffered points and releases the client.
func (w *Writer) Close() {
	w.writeAPI.Flush()
	w.client.Close()
}

// WriteFrame records one accepted frame: its protocol name, byte length,
// and whether its integrity check had to be rescued by OnBadCRC.
func (w *Writer) WriteFrame(protocol string, length int, rescued bool, when time.Time) {
	point := influxdb.NewPointWithMeasurement("frame").
		AddTag("protocol", protocol).
		AddTag("rescued", boolString(rescued)).
		AddField("length", length).
		SetTime(when)
	w.writeAPI.WritePoint(point)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
