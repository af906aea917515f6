package robotmodel

import "github.com/pkg/errors"

// ErrCircularReference is returned when the link and joint parents of a model form a cycle.
var ErrCircularReference = errors.New("infinite loop finding path from end effector to world")

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// NewReservedWordError returns an error indicating that a reserved word was used as an element name.
func NewReservedWordError(configType, reservedWord string) error {
	return errors.Errorf("reserved word: cannot name a %s '%s'", configType, reservedWord)
}

// NewDuplicateNameError returns an error indicating that two model elements share a name.
func NewDuplicateNameError(name string) error {
	return errors.Errorf("more than one link or joint is named %q", name)
}

// NewParentNotInModelError returns an error indicating that an element refers to a parent that does not exist.
func NewParentNotInModelError(child, parent string) error {
	return errors.Errorf("parent %q of %q is not a link or joint of the model", parent, child)
}

// NewLinkNotFoundError returns an error indicating that a link could not be found in the model.
func NewLinkNotFoundError(name string) error {
	return errors.Errorf("link %q not found in model", name)
}

// NewJointNotFoundError returns an error indicating that a joint could not be found in the model.
func NewJointNotFoundError(name string) error {
	return errors.Errorf("joint %q not found in model", name)
}

// NewGroupNotFoundError returns an error indicating that a joint group could not be found in the model.
func NewGroupNotFoundError(name string) error {
	return errors.Errorf("joint group %q not found in model", name)
}

// NewEndEffectorNotFoundError returns an error indicating that no end effector of that name is defined.
func NewEndEffectorNotFoundError(name string) error {
	return errors.Errorf("end effector %q is not defined for this model", name)
}

// NewGroupStateNotFoundError returns an error indicating that a group has no state with that name.
func NewGroupStateNotFoundError(group, name string) error {
	return errors.Errorf("group %q has no named state %q", group, name)
}

// NewUnsupportedJointTypeError returns an error indicating that a joint type is not supported.
func NewUnsupportedJointTypeError(jointType string) error {
	return errors.Errorf("unsupported joint type detected: %q", jointType)
}

// NewJointLimitError returns an error indicating that a joint value is outside the joint's limits.
func NewJointLimitError(joint string, value float64, limit Limit) error {
	return errors.Errorf("joint %q value %v outside of limits [%v, %v]", joint, value, limit.Min, limit.Max)
}
