package access

import "github.com/rotisserie/eris"

// ServiceType tags a category of public service. The engine treats it
// as an opaque tag; ingestion owns the per-type loading rules.
type ServiceType int

const (
	School ServiceType = iota
	Library
	TransportStop
	Pharmacy
	UrbanGreen
	numServiceTypes
)

// ServiceArea groups service types for the visualization menu.
type ServiceArea string

const (
	AreaEducation   ServiceArea = "istruzione"
	AreaCulture     ServiceArea = "cultura"
	AreaMobility    ServiceArea = "mobilita"
	AreaHealth      ServiceArea = "salute"
	AreaEnvironment ServiceArea = "ambiente"
)

var serviceTypeInfo = [numServiceTypes]struct {
	name       string
	label      string
	area       ServiceArea
	dataSource string
}{
	{"school", "Scuole", AreaEducation, "MIUR"},
	{"library", "Biblioteche", AreaCulture, "MiBACT"},
	{"transport_stop", "Fermate TPL", AreaMobility, "GTFS"},
	{"pharmacy", "Farmacie", AreaHealth, "Ministero della Salute"},
	{"urban_green", "Verde urbano", AreaEnvironment, "Comune"},
}

func (s ServiceType) String() string {
	if s < 0 || s >= numServiceTypes {
		return "unknown"
	}
	return serviceTypeInfo[s].name
}

// Label returns the human-readable indicator label.
func (s ServiceType) Label() string { return serviceTypeInfo[s].label }

// Area returns the menu grouping for this service.
func (s ServiceType) Area() ServiceArea { return serviceTypeInfo[s].area }

// DataSource names the upstream registry the service data comes from.
func (s ServiceType) DataSource() string { return serviceTypeInfo[s].dataSource }

// AllServiceTypes returns every service type.
func AllServiceTypes() []ServiceType {
	types := make([]ServiceType, numServiceTypes)
	for i := range types {
		types[i] = ServiceType(i)
	}
	return types
}

// ParseServiceType resolves a service name as emitted by String.
func ParseServiceType(s string) (ServiceType, error) {
	for i := range serviceTypeInfo {
		if serviceTypeInfo[i].name == s {
			return ServiceType(i), nil
		}
	}
	return 0, eris.Errorf("access: unknown service type %q", s)
}
