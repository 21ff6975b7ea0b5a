package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"roadnet.roadmap.org/internal/app"
	"roadnet.roadmap.org/internal/appconf"
	"roadnet.roadmap.org/internal/direction"
	"roadnet.roadmap.org/internal/importer"
	"roadnet.roadmap.org/internal/logging"
	"roadnet.roadmap.org/internal/network"
	"roadnet.roadmap.org/internal/track"
	"roadnet.roadmap.org/refdb"
)

type countingCreator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCreator) CreateNode(context.Context, network.Scope, network.Payload) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return int64(c.calls), nil
}

// meterTransformer treats degrees as 1e5 meters on both axes.
type meterTransformer struct{}

func (meterTransformer) ToProjected(_ context.Context, pts []orb.Point) ([]orb.Point, error) {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		out[i] = orb.Point{p[0] * 1e5, p[1] * 1e5}
	}
	return out, nil
}

func (meterTransformer) ToGeographic(_ context.Context, pts []orb.Point) ([]orb.Point, error) {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		out[i] = orb.Point{p[0] / 1e5, p[1] / 1e5}
	}
	return out, nil
}

func seedRefDB(t *testing.T) *refdb.Client {
	t.Helper()
	client, err := refdb.NewClient(refdb.NewConfig(":memory:", appconf.Test, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, refdb.InsertProjects(ctx, client.DB, []refdb.Project{{ID: 12, Name: "成华区农村公路", TenantID: 3}}))
	require.NoError(t, refdb.InsertDictEntries(ctx, client.DB, []refdb.DictEntry{
		{DictType: refdb.DictRoadType, Label: "县道", Value: "2"},
		{DictType: refdb.DictStructure, Label: "沥青混凝土", Value: "1"},
		{DictType: refdb.DictDriveDirection, Label: "东侧", Value: "2"},
		{DictType: refdb.DictDriveDirection, Label: "西侧", Value: "1"},
	}))
	return client
}

// createTestApi creates a RestAPI backed by an in-memory reference database
// and a node creator that accepts everything.
func createTestApi(t *testing.T) (*RestAPI, *countingCreator) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	creator := &countingCreator{}
	db := seedRefDB(t)
	mapper := direction.NewMapper(direction.DefaultTable())
	generator := track.NewGenerator(meterTransformer{}, logger)

	application := &app.Application{
		Config: appconf.Config{
			Env:     appconf.EnvFlagToEnvironment("test"),
			ApiKeys: []string{"TEST"},
		},
		Logger:     logger,
		RefDB:      db,
		Directions: mapper,
		Tracks:     generator,
		Importer:   importer.NewImporter(db, mapper, generator, network.NewAssembler(creator, logger), logger),
	}

	return &RestAPI{Application: application}, creator
}

type testResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// serveApiAndRetrieveEndpoint routes one request through the api and decodes the envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, method, endpoint, body string) (*http.Response, testResponse) {
	t.Helper()
	router := httprouter.New()
	api.SetRoutes(router)
	server := httptest.NewServer(api.WithMiddleware(router))
	defer server.Close()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, server.URL+endpoint, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var response testResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(raw)).Decode(&response), string(raw))
	return resp, response
}

func decodeData(t *testing.T, resp testResponse, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
