package rig

import "github.com/go-gl/mathgl/mgl64"

// Role names a frame's job in a rig. Role names double as the base frame
// names.
type Role string

const (
	// RoleProxyField is the root of scaled space.
	RoleProxyField Role = "ProxyField"
	// RoleProxyObserver follows the Observer at 1/scale.
	RoleProxyObserver Role = "ProxyObserver"
	// RoleObserver is the root of actual space.
	RoleObserver Role = "Observer"
	// RoleProxyPlace is the scaled-space stand-in of a Place.
	RoleProxyPlace Role = "ProxyPlace"
	// RoleProxyPlaceFocus sets the point whose distance to the ProxyObserver
	// drives a Place's scale.
	RoleProxyPlaceFocus Role = "ProxyPlaceFocus"
	// RolePlace is the actual-space frame external objects are parented to.
	RolePlace Role = "Place"
)

// BaseArmatureName is the name new rigs are created under.
const BaseArmatureName = "MegaMini"

// Rest tails of every role; all heads are at the origin.
var restTails = map[Role]mgl64.Vec3{
	RoleProxyField:      {0, 6.854101911, 0},
	RoleProxyObserver:   {0, 0.034441854, 0},
	RoleObserver:        {0, 0.61803399, 0},
	RoleProxyPlace:      {0, 0.090169945, 0},
	RoleProxyPlaceFocus: {0, 0.034441854, 0},
	RolePlace:           {0, 4, 0},
}

// RestTail returns the rest tail of a role.
func RestTail(r Role) mgl64.Vec3 { return restTails[r] }

// Armature and frame custom properties.
const (
	PropScale     = "mega_mini_scale"
	PropPower     = "mega_mini_fp_power"
	PropMinDist   = "mega_mini_fp_min_dist"
	PropMinScale  = "mega_mini_fp_min_scale"
	PropScaleMult = "mega_mini_bone_scl_mult" // on Place frames
)

// Tags stored on armatures, frames and objects so a rig can be recognized
// again after the scene is saved and loaded.
const (
	TagRole            = "megamini.role"
	TagRigID           = "megamini.rig_id"
	TagProxyPlace      = "megamini.proxy_place"       // on Place
	TagProxyPlaceFocus = "megamini.proxy_place_focus" // on Place
	TagPlace           = "megamini.place"             // on ProxyPlace and ProxyPlaceFocus
	TagShape           = "megamini.shape"             // frame display widget object
	TagWidget          = "megamini.widget"            // widget role of an object
)

// roleRig is the TagRole value of a rig armature.
const roleRig = "rig"

// WidgetRole names one of the decorative shapes frames are displayed with.
type WidgetRole string

const (
	WidgetTriangle      WidgetRole = "WidgetTriangle"
	WidgetPinchTriangle WidgetRole = "WidgetPinchTriangle"
	WidgetQuad          WidgetRole = "WidgetQuad"
	WidgetPinchQuad     WidgetRole = "WidgetPinchQuad"
	WidgetCircle        WidgetRole = "WidgetCircle"
	WidgetCardioid      WidgetRole = "WidgetCardioid"
)

// widgetOrder lists widget roles in creation order; the first one is the
// parent of the others.
var widgetOrder = []WidgetRole{
	WidgetTriangle,
	WidgetPinchTriangle,
	WidgetQuad,
	WidgetPinchQuad,
	WidgetCircle,
	WidgetCardioid,
}

var widgetObjectNames = map[WidgetRole]string{
	WidgetTriangle:      "WGT_Tri",
	WidgetPinchTriangle: "WGT_PinchTri",
	WidgetQuad:          "WGT_Quad",
	WidgetPinchQuad:     "WGT_PinchQuad",
	WidgetCircle:        "WGT_Circle",
	WidgetCardioid:      "WGT_Cardioid",
}

// frameShapes maps each role to the widget it is displayed with.
var frameShapes = map[Role]WidgetRole{
	RoleProxyField:      WidgetCircle,
	RoleProxyObserver:   WidgetPinchTriangle,
	RoleObserver:        WidgetTriangle,
	RolePlace:           WidgetQuad,
	RoleProxyPlace:      WidgetPinchQuad,
	RoleProxyPlaceFocus: WidgetCardioid,
}
