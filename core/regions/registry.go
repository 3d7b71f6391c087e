package regions

import "sort"

// Centroid is the reference point of an administrative region, used as a
// fallback when an incident record carries no coordinates of its own.
type Centroid struct {
	Lat float64
	Lon float64
}

// Registry maps region names to their reference centroids. It is built once
// at startup and never mutated afterwards; components receive it by injection.
type Registry struct {
	centroids map[string]Centroid
	names     []string
}

// NewRegistry copies the given mapping into an immutable registry.
func NewRegistry(centroids map[string]Centroid) *Registry {
	own := make(map[string]Centroid, len(centroids))
	names := make([]string, 0, len(centroids))
	for name, c := range centroids {
		own[name] = c
		names = append(names, name)
	}
	sort.Strings(names)
	return &Registry{centroids: own, names: names}
}

// Default returns the registry of the 17 regions of Kazakhstan.
func Default() *Registry {
	return NewRegistry(map[string]Centroid{
		"Алматы":                        {Lat: 43.2220, Lon: 76.8512},
		"Астана":                        {Lat: 51.1694, Lon: 71.4491},
		"Шымкент":                       {Lat: 42.3419, Lon: 69.5901},
		"Алматинская область":           {Lat: 45.0170, Lon: 78.3800},
		"Акмолинская область":           {Lat: 51.1694, Lon: 71.4491},
		"Актюбинская область":           {Lat: 50.2833, Lon: 57.1667},
		"Атырауская область":            {Lat: 47.1167, Lon: 51.8833},
		"Западно-Казахстанская область": {Lat: 51.2364, Lon: 51.3760},
		"Жамбылская область":            {Lat: 42.9000, Lon: 71.3667},
		"Карагандинская область":        {Lat: 49.8014, Lon: 73.1059},
		"Костанайская область":          {Lat: 53.2144, Lon: 63.6246},
		"Кызылординская область":        {Lat: 44.8528, Lon: 65.5092},
		"Мангистауская область":         {Lat: 43.6500, Lon: 51.1667},
		"Павлодарская область":          {Lat: 52.2833, Lon: 76.9667},
		"Северо-Казахстанская область":  {Lat: 54.8667, Lon: 69.1500},
		"Туркестанская область":         {Lat: 43.3000, Lon: 68.2500},
		"Восточно-Казахстанская область": {Lat: 49.9789, Lon: 82.6103},
	})
}

// Centroid looks up a region centroid by exact name.
func (r *Registry) Centroid(name string) (Centroid, bool) {
	c, ok := r.centroids[name]
	return c, ok
}

// Names returns the region names in ascending order. The returned slice is a
// copy; callers may keep it.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Known reports whether a region name is registered.
func (r *Registry) Known(name string) bool {
	_, ok := r.centroids[name]
	return ok
}

// Len returns the number of registered regions.
func (r *Registry) Len() int {
	return len(r.names)
}
