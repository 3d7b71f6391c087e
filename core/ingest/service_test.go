package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"crimevision/core/regions"
	"crimevision/core/store"
	"crimevision/core/utils"
)

func newTestService(t *testing.T) (*Service, store.CrimesStore) {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db, store.DriverSQLite))
	cs := store.NewCrimesStore(db, store.DriverSQLite)
	return NewService(cs, regions.Default(), utils.NewNopLogger()), cs
}

func TestUploadCSV_FullRows(t *testing.T) {
	svc, cs := newTestService(t)
	csv := strings.Join([]string{
		"date,region,city,crime_type,latitude,longitude,severity",
		"2024-01-15,Алматы,Алматы,Кража,43.25,76.95,2",
		"2024-01-16,Астана,Астана,Разбой,51.17,71.43,4",
	}, "\n")

	res, err := svc.UploadCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.NotEmpty(t, res.BatchID)
	require.Equal(t, 2, res.Total)
	require.Equal(t, 2, res.Inserted)
	require.Empty(t, res.Rejected)

	crimes, err := cs.ListCrimes(context.Background(), store.CrimeFilter{})
	require.NoError(t, err)
	require.Len(t, crimes, 2)
	require.Equal(t, "2024-01-16", crimes[0].Date)
	require.Equal(t, 4, crimes[0].Severity)
	require.InDelta(t, 51.17, *crimes[0].Latitude, 1e-9)
}

func TestUploadCSV_DefaultsAndCentroids(t *testing.T) {
	svc, cs := newTestService(t)
	csv := strings.Join([]string{
		"date,region,crime_type",
		"2024-02-01,,",
		"2024-02-02,Шымкент,Грабёж",
	}, "\n")

	res, err := svc.UploadCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, res.Inserted)

	crimes, err := cs.ListCrimes(context.Background(), store.CrimeFilter{})
	require.NoError(t, err)
	require.Len(t, crimes, 2)

	// Second row keeps its region and gets that region's centroid.
	cent, ok := regions.Default().Centroid("Шымкент")
	require.True(t, ok)
	require.Equal(t, "Шымкент", crimes[0].Region)
	require.InDelta(t, cent.Lat, *crimes[0].Latitude, 1e-9)
	require.InDelta(t, cent.Lon, *crimes[0].Longitude, 1e-9)

	// First row falls back to the default region, type and severity.
	require.Equal(t, "Алматы", crimes[1].Region)
	require.Equal(t, "Другое", crimes[1].CrimeType)
	require.Equal(t, 1, crimes[1].Severity)
}

func TestUploadCSV_RejectsBadRows(t *testing.T) {
	svc, _ := newTestService(t)
	csv := strings.Join([]string{
		"date,region,crime_type,severity,latitude,longitude",
		"2024-03-01,Алматы,Кража,2,,",
		"garbage,Алматы,Кража,2,,",
		"2024-03-02,Алматы,Кража,abc,,",
		"2024-03-03,Алматы,Кража,2,notanumber,76.9",
		"2024-03-04,Алматы,Кража,9,,",
	}, "\n")

	res, err := svc.UploadCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 5, res.Total)
	require.Equal(t, 1, res.Inserted)
	require.Len(t, res.Rejected, 4)
	require.Equal(t, 1, res.Rejected[0].Index)
	require.Equal(t, 2, res.Rejected[1].Index)
	require.Equal(t, 3, res.Rejected[2].Index)
	// Out-of-range severity is caught by store validation, same index space.
	require.Equal(t, 4, res.Rejected[3].Index)
}

func TestUploadCSV_HeaderHandling(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UploadCSV(context.Background(), strings.NewReader(""))
	require.Error(t, err)

	_, err = svc.UploadCSV(context.Background(), strings.NewReader("region,crime_type\nАлматы,Кража"))
	require.ErrorContains(t, err, "date")

	// BOM and mixed-case headers are tolerated.
	res, err := svc.UploadCSV(context.Background(),
		strings.NewReader("\ufeffDate,Region,Crime_Type\n2024-04-01,Алматы,Кража"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)
}

func TestUploadCSV_AlternateDateFormats(t *testing.T) {
	svc, cs := newTestService(t)
	csv := strings.Join([]string{
		"date,region,crime_type",
		"15.01.2024,Алматы,Кража",
		"2024/01/16,Алматы,Кража",
	}, "\n")

	res, err := svc.UploadCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, res.Inserted)

	crimes, err := cs.ListCrimes(context.Background(), store.CrimeFilter{})
	require.NoError(t, err)
	require.Equal(t, "2024-01-16", crimes[0].Date)
	require.Equal(t, "2024-01-15", crimes[1].Date)
}

func TestUploadCSV_DistinctBatchIDs(t *testing.T) {
	svc, _ := newTestService(t)
	csv := "date,region,crime_type\n2024-01-01,Алматы,Кража"

	first, err := svc.UploadCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	second, err := svc.UploadCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.NotEqual(t, first.BatchID, second.BatchID)
}

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestUploadCSV_ReadErrorAborts(t *testing.T) {
	svc, cs := newTestService(t)
	r := &failingReader{
		data: []byte("date,region,crime_type\n2024-01-01,Алматы,Кража\n"),
		err:  errors.New("stream cut"),
	}

	_, err := svc.UploadCSV(context.Background(), r)
	require.ErrorContains(t, err, "stream cut")

	crimes, err := cs.ListCrimes(context.Background(), store.CrimeFilter{})
	require.NoError(t, err)
	require.Empty(t, crimes)
}
