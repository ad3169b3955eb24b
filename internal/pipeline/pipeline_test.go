package pipeline_test

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chinjsg/csv-extractor/internal/adapter/csvfile"
	"github.com/chinjsg/csv-extractor/internal/domain"
	"github.com/chinjsg/csv-extractor/internal/observability"
	"github.com/chinjsg/csv-extractor/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fixtures ---

const (
	header14 = "FIPS,Admin2,Province_State,Country_Region,Last_Update,Lat,Long_,Confirmed,Deaths,Recovered,Active,Combined_Key,Incident_Rate,Case_Fatality_Ratio\n"
	header8  = "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered,Latitude,Longitude\n"
	header6  = "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered\n"
)

var upstream = map[string]string{
	"03-01-2022.csv": "\xef\xbb\xbf" + header14 +
		",,,Singapore,2022-03-02 04:20:52,1.2833,103.8333,801292,939,,,Singapore,13696.26,0.117\n" +
		"04019,Pima,Arizona,US,2022-03-02 04:20:52,32.09,-111.78,257463,3503,,,\"Pima, Arizona, US\",24669.9,1.36\n" +
		"04013,Maricopa,Arizona,US,2022-03-02 04:20:52,33.34,-112.49,1240000,15000,,,\"Maricopa, Arizona, US\",28000.1,1.2\n" +
		",,,France,2022-03-02 04:20:52,46.2,2.2,22000000,138000,,,France,33000,0.6\n",
	"03-02-2022.csv": header8 +
		",Singapore,2022-03-02T11:03:04,108,0,78,1.2833,103.8333\n" +
		",Japan,2022-03-02T11:03:04,274,6,32,35.0,135.0\n",
	"03-03-2022.csv": header6 +
		"Hubei,Mainland China,2022-03-03T14:23:03,67103,2931,33934\n",
}

type mockLister struct {
	entries []domain.DirEntry
	err     error
}

func (m *mockLister) ListDirectory(_ context.Context) ([]domain.DirEntry, error) {
	return m.entries, m.err
}

type mockFetcher struct {
	files   map[string]string
	fetched []string
	failOn  string
}

func (m *mockFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	m.fetched = append(m.fetched, name)
	if name == m.failOn {
		return nil, errors.New("connection reset")
	}
	body, ok := m.files[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(body), nil
}

type recordingLoader struct {
	batches []domain.Batch
}

func (r *recordingLoader) Name() string { return "recording" }

func (r *recordingLoader) Load(_ context.Context, batch domain.Batch) error {
	r.batches = append(r.batches, batch)
	return nil
}

func entriesFor(files map[string]string) []domain.DirEntry {
	entries := []domain.DirEntry{{Name: "README.md", Type: "file"}}
	for name := range files {
		entries = append(entries, domain.DirEntry{Name: name, Type: "file"})
	}
	return entries
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, files map[string]string, out pipeline.Output, mirrors ...pipeline.Loader) (*pipeline.Pipeline, *mockFetcher) {
	t.Helper()
	fetcher := &mockFetcher{files: files}
	transformer := pipeline.NewTransformer(domain.DefaultTargets(), domain.FullSchema{}, discardLogger())
	p := pipeline.New(&mockLister{entries: entriesFor(files)}, fetcher, transformer, out,
		domain.FullHeader(), discardLogger(), observability.NewMetricsForTesting(), mirrors...)
	return p, fetcher
}

func readOutput(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

// --- tests ---

func TestPipeline_Generate_EndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	store := csvfile.NewStore(path)
	mirror := &recordingLoader{}

	p, fetcher := newPipeline(t, upstream, store, mirror)
	require.Error(t, p.CheckReadiness(context.Background()))

	res, err := p.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, "03-03-2022", res.LastDate)
	assert.False(t, res.UpToDate)
	assert.Equal(t, []string{"03-01-2022.csv", "03-02-2022.csv", "03-03-2022.csv"}, fetcher.fetched)
	assert.NoError(t, p.CheckReadiness(context.Background()))

	records := readOutput(t, path)
	require.Len(t, records, 4)
	if diff := cmp.Diff([]string(domain.FullHeader()), records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	for _, rec := range records[1:] {
		assert.Len(t, rec, 15)
	}

	assert.Equal(t, "03-01-2022", records[1][domain.FieldDate])
	assert.Equal(t, "Singapore", records[1][domain.FieldCountryRegion])
	assert.Equal(t, "03-01-2022", records[2][domain.FieldDate])
	assert.Equal(t, "Pima", records[2][domain.FieldAdmin2])
	assert.Equal(t, "Pima, Arizona, US", records[2][domain.FieldCombinedKey])
	assert.Equal(t, "03-02-2022", records[3][domain.FieldDate])
	assert.Equal(t, "Singapore", records[3][domain.FieldCountryRegion])
	assert.Equal(t, "1.2833", records[3][domain.FieldLat])
	assert.Equal(t, "108", records[3][domain.FieldConfirmed])

	require.Len(t, mirror.batches, 2)
	assert.Equal(t, "03-01-2022.csv", mirror.batches[0].Source)
	assert.Len(t, mirror.batches[0].Rows, 2)
	assert.Equal(t, "03-02-2022", mirror.batches[1].Date)
}

func TestPipeline_Generate_SingaporeOnlyScenario(t *testing.T) {
	files := map[string]string{
		"03-01-2022.csv": header14 + ",,,Singapore,2022-03-02 04:20:52,1.28,103.83,801292,939,,,Singapore,13696.26,0.117\n",
		"03-02-2022.csv": header8 + ",Singapore,2022-03-02T11:03:04,108,0,78,1.2833,103.8333\n",
		"03-03-2022.csv": header6 + "Hubei,Mainland China,2022-03-03T14:23:03,67103,2931,33934\n",
	}
	path := filepath.Join(t.TempDir(), "cases.csv")

	p, _ := newPipeline(t, files, csvfile.NewStore(path))
	_, err := p.Generate(context.Background())
	require.NoError(t, err)

	records := readOutput(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, "03-01-2022", records[1][0])
	assert.Equal(t, "03-02-2022", records[2][0])
	assert.Len(t, records[1], 15)
	assert.Len(t, records[2], 15)
}

func TestPipeline_Update_AppendsNewerFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	store := csvfile.NewStore(path)

	older := map[string]string{"03-01-2022.csv": upstream["03-01-2022.csv"]}
	p, _ := newPipeline(t, older, store)
	_, err := p.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, readOutput(t, path), 3)

	p, fetcher := newPipeline(t, upstream, store)
	res, err := p.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"03-02-2022.csv", "03-03-2022.csv"}, fetcher.fetched)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 1, res.Rows)

	records := readOutput(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, "03-02-2022", records[3][0])
}

func TestPipeline_Update_AlreadyUpToDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	store := csvfile.NewStore(path)

	p, _ := newPipeline(t, upstream, store)
	_, err := p.Generate(context.Background())
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// The last written row is dated 03-02-2022, so only 03-03-2022 is pending.
	p, fetcher := newPipeline(t, upstream, store)
	res, err := p.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"03-03-2022.csv"}, fetcher.fetched)
	assert.Equal(t, 0, res.Rows)

	withoutLast := map[string]string{
		"03-01-2022.csv": upstream["03-01-2022.csv"],
		"03-02-2022.csv": upstream["03-02-2022.csv"],
	}
	p, fetcher = newPipeline(t, withoutLast, store)
	res, err = p.Update(context.Background())
	require.NoError(t, err)
	assert.True(t, res.UpToDate)
	assert.Equal(t, "03-02-2022", res.LastDate)
	assert.Empty(t, fetcher.fetched)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPipeline_Update_HeaderOnlyIngestsEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(domain.FullHeader(), ",")+"\n"), 0o600))

	p, fetcher := newPipeline(t, upstream, csvfile.NewStore(path))
	res, err := p.Update(context.Background())
	require.NoError(t, err)
	assert.Len(t, fetcher.fetched, 3)
	assert.Equal(t, 3, res.Rows)
	assert.Len(t, readOutput(t, path), 4)
}

func TestPipeline_Update_EmptyFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	p, fetcher := newPipeline(t, upstream, csvfile.NewStore(path))
	res, err := p.Update(context.Background())
	require.NoError(t, err)
	assert.Len(t, fetcher.fetched, 3)
	assert.Equal(t, 3, res.Rows)

	records := readOutput(t, path)
	require.Len(t, records, 4)
	if diff := cmp.Diff([]string(domain.FullHeader()), records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "03-01-2022", records[1][domain.FieldDate])
}

func TestPipeline_Update_ResumeInconsistency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	content := strings.Join(domain.FullHeader(), ",") + "\n02-15-2021,,,,Singapore,,,,1,0,0,,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, fetcher := newPipeline(t, upstream, csvfile.NewStore(path))
	_, err := p.Update(context.Background())
	require.ErrorIs(t, err, domain.ErrResumeState)
	assert.Empty(t, fetcher.fetched)
}

func TestPipeline_Update_MissingOutput(t *testing.T) {
	p, _ := newPipeline(t, upstream, csvfile.NewStore(filepath.Join(t.TempDir(), "none.csv")))
	_, err := p.Update(context.Background())
	require.ErrorIs(t, err, csvfile.ErrNoOutput)
}

func TestPipeline_Generate_UnsupportedLayoutAborts(t *testing.T) {
	files := map[string]string{
		"03-01-2022.csv": upstream["03-01-2022.csv"],
		"03-02-2022.csv": "a,b,c,d,e,f,g,h,i,j,k,l,m,n,o\n1,2,3,4,5,6,7,8,9,10,11,12,13,14,15\n",
		"03-03-2022.csv": upstream["03-03-2022.csv"],
	}
	path := filepath.Join(t.TempDir(), "cases.csv")

	p, fetcher := newPipeline(t, files, csvfile.NewStore(path))
	_, err := p.Generate(context.Background())
	require.ErrorIs(t, err, domain.ErrUnsupportedLayout)
	assert.Contains(t, err.Error(), "03-02-2022.csv")
	assert.Equal(t, []string{"03-01-2022.csv", "03-02-2022.csv"}, fetcher.fetched)

	// Rows appended before the failure stay on disk.
	assert.Len(t, readOutput(t, path), 3)
}

func TestPipeline_Generate_FetchErrorAborts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	p, fetcher := newPipeline(t, upstream, csvfile.NewStore(path))
	fetcher.failOn = "03-02-2022.csv"

	_, err := p.Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, []string{"03-01-2022.csv", "03-02-2022.csv"}, fetcher.fetched)
}

func TestPipeline_ListError(t *testing.T) {
	lister := &mockLister{err: errors.New("listing timed out")}
	transformer := pipeline.NewTransformer(domain.DefaultTargets(), domain.FullSchema{}, discardLogger())
	p := pipeline.New(lister, &mockFetcher{}, transformer, csvfile.NewStore(filepath.Join(t.TempDir(), "x.csv")),
		domain.FullHeader(), discardLogger(), observability.NewMetricsForTesting())

	_, err := p.Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing timed out")
}

func TestPipeline_Generate_ContextCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	p, fetcher := newPipeline(t, upstream, csvfile.NewStore(path))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.fetched)
}
