package api

import (
	"github.com/YnTheNerd/cleanspot/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders reports as point features for the map view.
// Coordinates are GeoJSON order, longitude first.
func toGeoJSON(reports []models.Report) FeatureCollection {
	features := make([]Feature, 0, len(reports))

	for _, r := range reports {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{r.Location.Coordinate.Longitude, r.Location.Coordinate.Latitude},
			},
			Properties: map[string]any{
				"id":          r.ID,
				"description": r.Description,
				"status":      string(r.Status),
				"address":     r.Location.Address,
				"source":      string(r.Location.Source),
				"created_at":  r.CreatedAt,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
