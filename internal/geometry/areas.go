// Package geometry turns geocoded listings into GeoJSON for the map view.
package geometry

import (
	"sort"
	"strings"

	"estatehub/server/internal/imagery"
	"estatehub/server/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// areaPadding is added around areas with fewer than three listings, in degrees (~300m)
const areaPadding = 0.003

// ListingFeatures returns one point feature per geocoded property.
// Properties without coordinates are skipped.
func ListingFeatures(properties []models.Property) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range properties {
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}

		feature := geojson.NewFeature(orb.Point{*p.Longitude, *p.Latitude})
		feature.ID = p.ID
		feature.Properties = geojson.Properties{
			"id":            p.ID,
			"title":         p.Title,
			"location":      p.Location,
			"city":          p.City,
			"price":         p.Price,
			"property_type": p.PropertyType,
			"featured":      p.Featured,
			"image":         imagery.Primary(p.Images).Src,
		}
		fc.Append(feature)
	}
	return fc
}

type area struct {
	location string
	city     string
	points   []orb.Point
}

// AreaFeatures outlines each location that has geocoded listings.
// Three or more points give a convex hull; fewer give a padded bounding box.
func AreaFeatures(properties []models.Property) *geojson.FeatureCollection {
	areas := make(map[string]*area)
	for _, p := range properties {
		if p.Latitude == nil || p.Longitude == nil || strings.TrimSpace(p.Location) == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(p.Location)) + "|" + strings.ToLower(strings.TrimSpace(p.City))
		a, ok := areas[key]
		if !ok {
			a = &area{location: p.Location, city: p.City}
			areas[key] = a
		}
		a.points = append(a.points, orb.Point{*p.Longitude, *p.Latitude})
	}

	keys := make([]string, 0, len(areas))
	for k := range areas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fc := geojson.NewFeatureCollection()
	for _, k := range keys {
		a := areas[k]

		hullType := "convex"
		ring := ConvexHull(a.points)
		if ring == nil {
			hullType = "bounds"
			bound := orb.MultiPoint(a.points).Bound().Pad(areaPadding)
			ring = bound.ToRing()
		}

		polygon := orb.Polygon{ring}
		centroid, _ := planar.CentroidArea(polygon)

		feature := geojson.NewFeature(polygon)
		feature.Properties = geojson.Properties{
			"location":    a.location,
			"city":        a.city,
			"point_count": len(a.points),
			"hull_type":   hullType,
			"centroid":    []float64{centroid[0], centroid[1]},
		}
		fc.Append(feature)
	}
	return fc
}

// ConvexHull returns the closed counter-clockwise hull of points,
// or nil when the points do not span an area.
func ConvexHull(points []orb.Point) orb.Ring {
	pts := make([]orb.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	// drop duplicates
	unique := pts[:0]
	for _, p := range pts {
		if len(unique) == 0 || p != unique[len(unique)-1] {
			unique = append(unique, p)
		}
	}
	pts = unique
	if len(pts) < 3 {
		return nil
	}

	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// hull now ends with its first point; collinear input leaves a degenerate ring
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
