package stages

import (
	"github.com/invopop/jsonschema"
)

// GenerateGraspPoseAttributes lists the attributes a generate_grasp_pose stage config accepts.
// It only documents the format; attributes are decoded into the stage's properties.
type GenerateGraspPoseAttributes struct {
	EndEffector   string                `json:"eef" jsonschema:"required,description=name of end-effector"`
	EEFNamedPose  string                `json:"eef_named_pose,omitempty" jsonschema:"description=pose name for end effector"`
	Object        string                `json:"object" jsonschema:"required,description=object on which we generate the grasp poses"`
	ToolToGraspTF *transformStampedJSON `json:"tool_to_grasp_tf,omitempty" jsonschema:"description=transform from robot tool frame to grasp frame"`
	AngleDelta    float64               `json:"angle_delta,omitempty" jsonschema:"description=angular steps (rad)"`
}

type configSchema struct {
	Name       string                      `json:"name" jsonschema:"required"`
	Type       string                      `json:"type" jsonschema:"required,enum=generate_grasp_pose"`
	Attributes GenerateGraspPoseAttributes `json:"attributes"`
}

// ConfigSchema returns the JSON schema of a stage config file.
func ConfigSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&configSchema{})
}
