package mapview

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"
)

// FeatureCollection encodes the markers as GeoJSON points carrying their tooltip.
func (s Snapshot) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, m := range s.Markers {
		f := geojson.NewFeature(m.Position)
		f.Properties["index"] = i
		f.Properties["tooltip"] = m.Tooltip
		f.Properties["tooltipOpen"] = m.TooltipOpen
		fc.Append(f)
	}
	return fc
}

type viewMessage struct {
	Center [2]float64 `json:"center"` // [lat, lng] as the browser map expects
	Zoom   int        `json:"zoom"`
}

type snapshotMessage struct {
	View        *viewMessage               `json:"view"`
	ViewVersion int                        `json:"viewVersion"`
	Markers     *geojson.FeatureCollection `json:"markers"`
}

func (v View) message() *viewMessage {
	return &viewMessage{Center: [2]float64{v.Center.Lat(), v.Center.Lon()}, Zoom: v.Zoom}
}

// MarshalJSON renders the view and a GeoJSON marker collection.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	msg := snapshotMessage{ViewVersion: s.ViewVersion, Markers: s.FeatureCollection()}
	if s.View != nil {
		msg.View = s.View.message()
	}
	return json.Marshal(msg)
}

func (v View) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.message())
}
