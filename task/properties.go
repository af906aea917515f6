package task

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Property is a declared, typed slot in a PropertyMap.
type Property struct {
	Name         string
	Description  string
	typ          reflect.Type
	defaultValue interface{}
	value        interface{}
	defined      bool
}

// Type returns the declared type of the property.
func (p *Property) Type() reflect.Type {
	return p.typ
}

// Value returns the value of the property, or its default when it has not been set.
func (p *Property) Value() interface{} {
	if p.defined {
		return p.value
	}
	return p.defaultValue
}

// Defined reports whether the property was set explicitly.
func (p *Property) Defined() bool {
	return p.defined
}

// PropertyMap holds the declared properties of a stage.
type PropertyMap struct {
	props map[string]*Property
}

// NewPropertyMap returns an empty property map.
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{props: map[string]*Property{}}
}

// Declare adds a property of type T to the map. Declaring a name twice replaces the earlier declaration.
func Declare[T any](pm *PropertyMap, name string, defaultValue T, description string) {
	pm.props[name] = &Property{
		Name:         name,
		Description:  description,
		typ:          reflect.TypeOf((*T)(nil)).Elem(),
		defaultValue: defaultValue,
	}
}

// Property returns the declared property with the given name.
func (pm *PropertyMap) Property(name string) (*Property, error) {
	p, ok := pm.props[name]
	if !ok {
		return nil, NewUndeclaredPropertyError(name)
	}
	return p, nil
}

// Has reports whether a property of that name is declared.
func (pm *PropertyMap) Has(name string) bool {
	_, ok := pm.props[name]
	return ok
}

// Names returns the sorted names of all declared properties.
func (pm *PropertyMap) Names() []string {
	names := make([]string, 0, len(pm.props))
	for name := range pm.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set assigns a value to a declared property. The value must be assignable to the declared type.
func (pm *PropertyMap) Set(name string, value interface{}) error {
	p, err := pm.Property(name)
	if err != nil {
		return err
	}
	if value == nil {
		switch p.typ.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice:
		default:
			return NewPropertyTypeError(name, p.typ, nil)
		}
	} else if !reflect.TypeOf(value).AssignableTo(p.typ) {
		return NewPropertyTypeError(name, p.typ, reflect.TypeOf(value))
	}
	p.value = value
	p.defined = true
	return nil
}

// Get returns the value of a property, or its default when it has not been set.
func (pm *PropertyMap) Get(name string) (interface{}, error) {
	p, err := pm.Property(name)
	if err != nil {
		return nil, err
	}
	return p.Value(), nil
}

// GetProperty returns the value of a property as a T.
func GetProperty[T any](pm *PropertyMap, name string) (T, error) {
	var zero T
	v, err := pm.Get(name)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, NewPropertyTypeError(name, reflect.TypeOf((*T)(nil)).Elem(), reflect.TypeOf(v))
	}
	return typed, nil
}

// Clone returns a deep copy of the declarations and a shallow copy of the values.
func (pm *PropertyMap) Clone() *PropertyMap {
	c := NewPropertyMap()
	for name, p := range pm.props {
		cp := *p
		c.props[name] = &cp
	}
	return c
}

// Configure sets properties from a generic attribute map, as read from a JSON or YAML config. Each value is
// decoded into the property's declared type. On any error the map is left unchanged.
func (pm *PropertyMap) Configure(attrs map[string]interface{}) error {
	staged := pm.Clone()
	for name, raw := range attrs {
		p, err := staged.Property(name)
		if err != nil {
			return err
		}
		v, err := decodeProperty(p.typ, raw)
		if err != nil {
			return errors.Wrapf(err, "cannot decode property %q", name)
		}
		if err := staged.Set(name, v); err != nil {
			return err
		}
	}
	// copy back into the existing properties, callers may hold on to them
	for name, p := range staged.props {
		*pm.props[name] = *p
	}
	return nil
}

var jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

// decodeProperty converts a raw attribute into a value of type typ. Types that read themselves from JSON are
// round tripped through encoding/json, everything else is decoded by mapstructure.
func decodeProperty(typ reflect.Type, raw interface{}) (interface{}, error) {
	target := reflect.New(typ)
	if reflect.PointerTo(typ).Implements(jsonUnmarshalerType) {
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, target.Interface()); err != nil {
			return nil, err
		}
		return target.Elem().Interface(), nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target.Interface(),
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	return target.Elem().Interface(), nil
}
