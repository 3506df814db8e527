package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civita/urbanaccess/internal/access"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderFor(t *testing.T) {
	for _, st := range access.AllServiceTypes() {
		loader, err := LoaderFor(st)
		require.NoError(t, err)
		assert.Equal(t, st, loader.Type())
	}
}

func TestSchoolLoader(t *testing.T) {
	path := writeFile(t, "scuole.csv",
		"DENOMINAZIONESCUOLA;ORDINESCUOLA;ALUNNI;Lat;Long\n"+
			"Leonardo da Vinci;SCUOLA PRIMARIA;400;45,4642;9,1900\n"+
			"Alessandro Manzoni;SCUOLA SECONDARIA I GRADO;100;45,4700;9,2000\n")

	units, err := (&SchoolLoader{}).Load(context.Background(), path, 0.5)
	require.NoError(t, err)
	require.Len(t, units, 2)

	big, small := units[0], units[1]
	assert.Equal(t, "Leonardo da Vinci", big.Name)
	assert.InDelta(t, 1.0, big.Weight(access.ChildPrimary), 1e-12)
	assert.Zero(t, big.Weight(access.ChildMid))
	assert.InDelta(t, 1.0, small.Weight(access.ChildMid), 1e-12)

	// sqrt(400)=20, sqrt(100)=10, mean 15: scales 20/15*0.5 and 10/15*0.5.
	assert.InDelta(t, 20.0/15.0*0.5, big.Scale, 1e-9)
	assert.InDelta(t, 10.0/15.0*0.5, small.Scale, 1e-9)
	assert.Equal(t, "SCUOLA PRIMARIA", big.Attributes["level"])
}

func TestSchoolLoaderUnknownOrder(t *testing.T) {
	path := writeFile(t, "scuole.csv",
		"DENOMINAZIONESCUOLA;ORDINESCUOLA;ALUNNI;Lat;Long\n"+
			"X;LICEO SERALE SPERIMENTALE;50;45,46;9,19\n")

	_, err := (&SchoolLoader{}).Load(context.Background(), path, 0.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCategory, "unknown category fails the whole load")
}

func TestSchoolLoaderSkipsBadCoordinates(t *testing.T) {
	path := writeFile(t, "scuole.csv",
		"DENOMINAZIONESCUOLA;ORDINESCUOLA;ALUNNI;Lat;Long\n"+
			"A;SCUOLA PRIMARIA;100;45,46;9,19\n"+
			"B;SCUOLA PRIMARIA;100;n/d;9,19\n")

	units, err := (&SchoolLoader{}).Load(context.Background(), path, 0.5)
	require.NoError(t, err)
	assert.Len(t, units, 1, "rows with unusable coordinates are skipped, not fatal")
}

func TestSchoolLoaderInvalidRadius(t *testing.T) {
	path := writeFile(t, "scuole.csv", "DENOMINAZIONESCUOLA;ORDINESCUOLA;ALUNNI;Lat;Long\n")
	_, err := (&SchoolLoader{}).Load(context.Background(), path, 0)
	assert.Error(t, err)
}

func TestLibraryLoader(t *testing.T) {
	path := writeFile(t, "biblioteche.csv",
		"denominazioni.ufficiale;tipologia-funzionale;Lat;Long\n"+
			"Biblioteca Sormani;Pubblica;45,4630;9,1950\n"+
			"Biblioteca Scolastica Nord;Scolastica;45,4800;9,1800\n")

	units, err := (&LibraryLoader{}).Load(context.Background(), path, 0.8)
	require.NoError(t, err)
	require.Len(t, units, 2)

	public, school := units[0], units[1]
	assert.InDelta(t, 1.0, public.Weight(access.Over65), 1e-12, "public library serves everyone")
	assert.InDelta(t, 1.0, school.Weight(access.ChildPrimary), 1e-12)
	assert.Zero(t, school.Weight(access.Over65), "school library serves children only")
	assert.InDelta(t, 0.8, public.Scale, 1e-12)
}

func TestLibraryLoaderUnknownTypology(t *testing.T) {
	path := writeFile(t, "biblioteche.csv",
		"denominazioni.ufficiale;tipologia-funzionale;Lat;Long\n"+
			"X;Circolante;45,46;9,19\n")

	_, err := (&LibraryLoader{}).Load(context.Background(), path, 0.8)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestTransportStopLoader(t *testing.T) {
	path := writeFile(t, "fermate.csv",
		"stop_id;route_id;route_type;Lat;Long\n"+
			"1234;90;3;45,4642;9,1900\n"+
			"5678;M1;1;45,4700;9,2000\n")

	units, err := (&TransportStopLoader{}).Load(context.Background(), path, 0.3)
	require.NoError(t, err)
	require.Len(t, units, 2)

	bus, metro := units[0], units[1]
	assert.Equal(t, "1234_90", bus.Name)
	assert.InDelta(t, 0.3, bus.Scale, 1e-12)
	assert.InDelta(t, 0.6, metro.Scale, 1e-12, "metro reaches twice as far")
	assert.Equal(t, "Metro", metro.Attributes["routeType"])

	assert.Zero(t, bus.Weight(access.Newborn))
	assert.Zero(t, bus.Weight(access.Kinder))
	assert.InDelta(t, 1.0, bus.Weight(access.Young), 1e-12)
}

func TestTransportStopLoaderUnknownRouteType(t *testing.T) {
	path := writeFile(t, "fermate.csv",
		"stop_id;route_id;route_type;Lat;Long\n"+
			"1;F1;4;45,46;9,19\n") // 4 = ferry, not in the city network

	_, err := (&TransportStopLoader{}).Load(context.Background(), path, 0.3)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestPharmacyLoader(t *testing.T) {
	path := writeFile(t, "farmacie.csv",
		"CODICEIDENTIFICATIVOFARMACIA;DESCRIZIONEFARMACIA;PARTITAIVA;Lat;Long\n"+
			"F001;Farmacia Centrale;01234567890;45,4642;9,1900\n"+
			"F002;Farmacia Porta Venezia;09876543210;45,4750;9,2050\n")

	units, err := (&PharmacyLoader{}).Load(context.Background(), path, 0.5)
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, "F001", units[0].Name)
	assert.Equal(t, "Farmacia Centrale", units[0].Attributes["Descrizione"])
	for _, g := range access.AllAgeGroups() {
		assert.InDelta(t, 1.0, units[0].Weight(g), 1e-12)
	}

	// Shared profile: one threshold cache for the whole collection.
	c, err := access.NewCollection(access.Pharmacy, units, access.DefaultEpsilon)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Profiles())
}

func TestPharmacyLoaderXML(t *testing.T) {
	// Latin-1 payload, as published by the ministry: \xe0 is "à".
	path := writeFile(t, "farmacie.xml",
		"<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n"+
			"<FARMACIE>\n"+
			"<FARMACIA><CODICEIDENTIFICATIVOFARMACIA>F001</CODICEIDENTIFICATIVOFARMACIA>"+
			"<DESCRIZIONEFARMACIA>Farmacia della Citt\xe0</DESCRIZIONEFARMACIA>"+
			"<PARTITAIVA>01234567890</PARTITAIVA><Lat>45,4642</Lat><Long>9,1900</Long></FARMACIA>\n"+
			"<FARMACIA><CODICEIDENTIFICATIVOFARMACIA>F002</CODICEIDENTIFICATIVOFARMACIA>"+
			"<DESCRIZIONEFARMACIA>Farmacia Senza Sede</DESCRIZIONEFARMACIA>"+
			"<PARTITAIVA>09876543210</PARTITAIVA><Lat>n/d</Lat><Long>n/d</Long></FARMACIA>\n"+
			"</FARMACIE>\n")

	units, err := (&PharmacyLoader{}).Load(context.Background(), path, 0.5)
	require.NoError(t, err)
	require.Len(t, units, 1)

	assert.Equal(t, "F001", units[0].Name)
	assert.Equal(t, "Farmacia della Città", units[0].Attributes["Descrizione"])
	assert.InDelta(t, 45.4642, units[0].Position.Lat, 1e-9)
	assert.InDelta(t, 9.19, units[0].Position.Lon, 1e-9)
	for _, g := range access.AllAgeGroups() {
		assert.InDelta(t, 1.0, units[0].Weight(g), 1e-12)
	}
}

func TestUrbanGreenLoader(t *testing.T) {
	path := writeFile(t, "verde.csv",
		"DENOMINAZIONE;TIPOLOGIA;Lat;Long\n"+
			"Parco Sempione;parco;45,4722;9,1772\n")

	units, err := (&UrbanGreenLoader{}).Load(context.Background(), path, 0.7)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Parco Sempione", units[0].Name)
	assert.Equal(t, "parco", units[0].Attributes["tipologia"])
}

func TestReadTableMissingColumn(t *testing.T) {
	path := writeFile(t, "farmacie.csv", "CODICE;Lat;Long\nF1;45,46;9,19\n")
	_, err := (&PharmacyLoader{}).Load(context.Background(), path, 0.5)
	assert.Error(t, err)
}
