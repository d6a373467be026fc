package geocoding

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/gpkg"

	"github.com/pdok/mapstream/fragment"
	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/quadkey"
	"github.com/pdok/mapstream/regionindex"
	"github.com/pdok/mapstream/typedgeom"
)

const (
	fragmentsTable = "fragments"
	regionsTable   = "regions"
	geometryColumn = "geom"
)

var wgs84 = gpkg.SpatialReferenceSystem{
	Name:                   "WGS 84 geodetic",
	ID:                     4326,
	Organization:           "EPSG",
	OrganizationCoordsysID: 4326,
	Definition:             `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AXIS["Latitude",NORTH],AXIS["Longitude",EAST],AUTHORITY["EPSG","4326"]]`,
	Description:            "longitude/latitude coordinates in decimal degrees on the WGS 84 spheroid",
}

// GeoPackageService reads fragments from a GeoPackage written by WriteGeoPackage.
type GeoPackageService struct {
	handle *gpkg.Handle
}

func OpenGeoPackage(path string) (*GeoPackageService, error) {
	handle, err := gpkg.Open(path)
	if err != nil {
		return nil, fmt.Errorf(`error opening GeoPackage %v: %w`, path, err)
	}
	return &GeoPackageService{handle: handle}, nil
}

func (s *GeoPackageService) Close() error {
	return s.handle.Close()
}

func (s *GeoPackageService) Execute(ctx context.Context, request fragment.GeocodingRequest) ([]fragment.GeocodedFeature, error) {
	var features []fragment.GeocodedFeature
	for _, id := range request.RegionIDs {
		quads := mapslicehelp.SortedKeys(request.TilesByRegion[id])
		if len(quads) == 0 {
			continue
		}
		fragments, err := s.readFragments(ctx, id, quads)
		if err != nil {
			return nil, err
		}
		features = append(features, fragment.GeocodedFeature{ID: id, Fragments: fragments})
	}
	return features, nil
}

func (s *GeoPackageService) readFragments(ctx context.Context, regionID string, quads []quadkey.QuadKey) ([]fragment.Fragment, error) {
	args := make([]any, 0, len(quads)+1)
	args = append(args, regionID)
	for _, q := range quads {
		args = append(args, string(q))
	}
	query := fmt.Sprintf(`SELECT quad_key, %v FROM "%v" WHERE region_id = ? AND quad_key IN (%v) ORDER BY quad_key;`,
		geometryColumn, fragmentsTable, strings.TrimSuffix(strings.Repeat("?,", len(quads)), ","))

	rows, err := s.handle.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf(`error querying fragments of %v: %w`, regionID, err)
	}
	defer rows.Close()

	var fragments []fragment.Fragment
	for rows.Next() {
		var q string
		var blob []byte
		if err := rows.Scan(&q, &blob); err != nil {
			return nil, fmt.Errorf(`error reading fragment of %v: %w`, regionID, err)
		}
		sb, err := gpkg.DecodeGeometry(blob)
		if err != nil {
			return nil, fmt.Errorf(`error decoding the geometry of %v/%v: %w`, regionID, q, err)
		}
		var mp geom.MultiPolygon
		switch g := sb.Geometry.(type) {
		case geom.MultiPolygon:
			mp = g
		case geom.Polygon:
			mp = geom.MultiPolygon{g}
		default:
			return nil, fmt.Errorf(`fragment %v/%v is a %T, expected a (multi)polygon`, regionID, q, g)
		}
		fragments = append(fragments, fragment.Fragment{
			QuadKey:  quadkey.QuadKey(q),
			Geometry: typedgeom.MultiPolygonFromGeom[typedgeom.LonLat](mp),
		})
	}
	return fragments, rows.Err()
}

// BBoxes returns the bounding box of every region in the GeoPackage.
func (s *GeoPackageService) BBoxes(ctx context.Context) (map[string]regionindex.RegionBBox, error) {
	rows, err := s.handle.QueryContext(ctx, fmt.Sprintf(`SELECT region_id, west, south, east, north FROM "%v";`, regionsTable))
	if err != nil {
		return nil, fmt.Errorf(`error querying regions: %w`, err)
	}
	defer rows.Close()

	bboxes := make(map[string]regionindex.RegionBBox)
	for rows.Next() {
		var id string
		var b regionindex.RegionBBox
		if err := rows.Scan(&id, &b.West, &b.South, &b.East, &b.North); err != nil {
			return nil, fmt.Errorf(`error reading region: %w`, err)
		}
		bboxes[id] = b
	}
	return bboxes, rows.Err()
}

// WriteGeoPackage clips every boundary of source to the quads of zoom levels minZoom up to and including maxZoom
// and stores the fragments in a GeoPackage, pageSize rows per transaction.
// Quads a region does not reach get no row, they are empty.
func WriteGeoPackage(ctx context.Context, path string, source *ClippingService, minZoom, maxZoom int, pageSize int) (int, error) {
	handle, err := gpkg.Open(path)
	if err != nil {
		return 0, fmt.Errorf(`error opening GeoPackage %v: %w`, path, err)
	}
	defer handle.Close()

	if err := createTables(handle); err != nil {
		return 0, err
	}

	w := &pageWriter{handle: handle, pageSize: max(1, pageSize)}
	bboxes := source.BBoxes()
	for _, id := range mapslicehelp.SortedKeys(bboxes) {
		bbox := bboxes[id]
		if _, err := handle.ExecContext(ctx, fmt.Sprintf(`INSERT INTO "%v"(region_id, west, south, east, north) VALUES(?,?,?,?,?);`, regionsTable),
			id, bbox.West, bbox.South, bbox.East, bbox.North); err != nil {
			return w.written, fmt.Errorf(`could not write region %v: %w`, id, err)
		}
		for z := minZoom; z <= maxZoom; z++ {
			quads := make(mapslicehelp.Set[quadkey.QuadKey])
			for _, r := range bbox.Rects() {
				quads.AddAll(quadkey.CalculateQuadKeys(r, z))
			}
			for _, q := range mapslicehelp.SortedKeys(quads) {
				f, ok := Clip(source.boundaries[id], q)
				if !ok {
					continue
				}
				if err := w.add(ctx, id, f); err != nil {
					return w.written, err
				}
			}
		}
		slog.Debug("tiled region", slog.String("region", id), slog.Int("fragments", w.written))
	}
	if err := w.flush(ctx); err != nil {
		return w.written, err
	}
	if w.extent != nil {
		if err := handle.UpdateGeometryExtent(fragmentsTable, w.extent); err != nil {
			return w.written, fmt.Errorf(`failed to update the extent: %w`, err)
		}
	}
	return w.written, nil
}

func createTables(h *gpkg.Handle) error {
	if err := h.UpdateSRS(wgs84); err != nil {
		return err
	}
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%v"(fid INTEGER PRIMARY KEY AUTOINCREMENT, region_id TEXT NOT NULL, quad_key TEXT NOT NULL, %v MULTIPOLYGON, UNIQUE(region_id, quad_key));`,
		fragmentsTable, geometryColumn)
	if _, err := h.Exec(create); err != nil {
		return fmt.Errorf(`error building table in target GeoPackage: %w`, err)
	}
	if err := h.AddGeometryTable(gpkg.TableDescription{
		Name:          fragmentsTable,
		ShortName:     fragmentsTable,
		Description:   "region boundaries cut into quads",
		GeometryField: geometryColumn,
		GeometryType:  gpkg.MultiPolygon,
		SRS:           int32(wgs84.ID),
		Z:             gpkg.Prohibited,
		M:             gpkg.Prohibited,
	}); err != nil {
		return fmt.Errorf(`error adding geometry table in target GeoPackage: %w`, err)
	}
	regions := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%v"(region_id TEXT PRIMARY KEY, west REAL NOT NULL, south REAL NOT NULL, east REAL NOT NULL, north REAL NOT NULL);`, regionsTable)
	if _, err := h.Exec(regions); err != nil {
		return fmt.Errorf(`error building table in target GeoPackage: %w`, err)
	}
	return nil
}

type pendingRow struct {
	regionID string
	fragment fragment.Fragment
}

// pageWriter inserts fragments in transactions of pageSize rows.
type pageWriter struct {
	handle   *gpkg.Handle
	pageSize int
	pending  []pendingRow
	written  int
	extent   *geom.Extent
}

func (w *pageWriter) add(ctx context.Context, regionID string, f fragment.Fragment) error {
	w.pending = append(w.pending, pendingRow{regionID: regionID, fragment: f})
	if len(w.pending) >= w.pageSize {
		return w.flush(ctx)
	}
	return nil
}

func (w *pageWriter) flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	tx, err := w.handle.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf(`could not start a transaction: %w`, err)
	}
	if err := w.insert(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf(`could not commit %v fragments: %w`, len(w.pending), err)
	}
	w.written += len(w.pending)
	w.pending = w.pending[:0]
	return nil
}

func (w *pageWriter) insert(ctx context.Context, tx *sql.Tx) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO "%v"(region_id, quad_key, %v) VALUES(?,?,?)`, fragmentsTable, geometryColumn))
	if err != nil {
		return fmt.Errorf(`could not prepare a statement: %w`, err)
	}
	defer stmt.Close()

	for _, row := range w.pending {
		g := row.fragment.Geometry.ToGeom()
		sb, err := gpkg.NewBinary(int32(wgs84.ID), g)
		if err != nil {
			return fmt.Errorf(`could not create a binary geometry: %w`, err)
		}
		if _, err := stmt.ExecContext(ctx, row.regionID, string(row.fragment.QuadKey), sb); err != nil {
			return fmt.Errorf(`could not insert fragment %v: %w`, fragment.NewKey(row.regionID, row.fragment.QuadKey), err)
		}
		if w.extent == nil {
			if w.extent, err = geom.NewExtentFromGeometry(g); err != nil {
				w.extent = nil
			}
		} else {
			_ = w.extent.AddGeometry(g)
		}
	}
	return nil
}
