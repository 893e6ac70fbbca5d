package runtime

import (
	"fmt"
	"testing"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

type point struct {
	X int64
	Y int64
}

func (p *point) Norm() float64 {
	return float64(p.X*p.X + p.Y*p.Y)
}

func (p *point) Shift(dx, dy int64) {
	p.X += dx
	p.Y += dy
}

func (p *point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

type namedPoint struct {
	point
	Name string
}

func newPoint(x, y int64) *point {
	return &point{X: x, Y: y}
}

func registerPoint(t *testing.T, rt *Runtime) {
	t.Helper()
	err := rt.RegisterClass("Point", (*point)(nil),
		WithClassDoc("A 2D point."),
		WithConstructor(newPoint, "x", "y"),
		WithClassConst("ORIGIN_NORM", int64(0)),
		WithMethodDoc("Norm", "Squared distance from the origin."))
	if err != nil {
		t.Fatal(err)
	}
}

func TestClassConstruction(t *testing.T) {
	rt := New()
	registerPoint(t, rt)

	c, err := rt.Class("Point")
	if err != nil {
		t.Fatal(err)
	}
	obj, err := c.New(rt, []any{int64(3), int64(4)})
	if err != nil {
		t.Fatal(err)
	}
	p, ok := obj.(*point)
	if !ok {
		t.Fatalf("New returned %T", obj)
	}
	if p.X != 3 || p.Y != 4 {
		t.Fatalf("constructed %+v", p)
	}

	if _, err := rt.Class("Ghost"); err == nil {
		t.Fatal("unknown class should fail")
	}
}

func TestZeroValueConstruction(t *testing.T) {
	rt := New()
	if err := rt.RegisterClass("Bare", (*namedPoint)(nil)); err != nil {
		t.Fatal(err)
	}
	c, _ := rt.Class("Bare")
	obj, err := c.New(rt, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := obj.(*namedPoint); !ok {
		t.Fatalf("got %T", obj)
	}
	if _, err := c.New(rt, []any{int64(1)}); err == nil {
		t.Fatal("args without a constructor should fail")
	}
}

func TestInterfaceNotInstantiable(t *testing.T) {
	rt := New()
	if err := rt.RegisterInterface("Stringable", (*fmt.Stringer)(nil)); err != nil {
		t.Fatal(err)
	}
	c, _ := rt.Class("Stringable")
	_, err := c.New(rt, nil)
	var e *errors.Error
	if !errors.As(err, &e) || e.Kind != errors.KindNotInstantiable {
		t.Fatalf("want not_instantiable, got %v", err)
	}
}

func TestClassMeta(t *testing.T) {
	rt := New()
	registerPoint(t, rt)
	if err := rt.RegisterInterface("Stringable", (*fmt.Stringer)(nil)); err != nil {
		t.Fatal(err)
	}
	if err := rt.RegisterClass("NamedPoint", (*namedPoint)(nil)); err != nil {
		t.Fatal(err)
	}

	c, _ := rt.Class("Point")
	meta := c.Meta(rt)
	if meta.Doc != "A 2D point." {
		t.Errorf("doc = %q", meta.Doc)
	}
	if len(meta.Properties) != 2 || meta.Properties[0] != "X" || meta.Properties[1] != "Y" {
		t.Errorf("properties = %v", meta.Properties)
	}
	if meta.Consts["ORIGIN_NORM"] != int64(0) {
		t.Errorf("consts = %v", meta.Consts)
	}
	if meta.Parent != "" {
		t.Errorf("parent = %q", meta.Parent)
	}
	if len(meta.Interfaces) != 1 || meta.Interfaces[0] != "Stringable" {
		t.Errorf("interfaces = %v", meta.Interfaces)
	}
	var norm *MethodMeta
	for i := range meta.Methods {
		if meta.Methods[i].Name == "Norm" {
			norm = &meta.Methods[i]
		}
		if meta.Methods[i].Static {
			t.Errorf("method %s reported static", meta.Methods[i].Name)
		}
	}
	if norm == nil {
		t.Fatalf("Norm missing from %v", meta.Methods)
	}
	if norm.Doc != "Squared distance from the origin." {
		t.Errorf("Norm doc = %q", norm.Doc)
	}
	if norm.ReturnType == nil || norm.ReturnType.Name != "float" {
		t.Errorf("Norm return = %+v", norm.ReturnType)
	}

	named, _ := rt.Class("NamedPoint")
	if parent := named.Meta(rt).Parent; parent != "Point" {
		t.Errorf("NamedPoint parent = %q", parent)
	}
}

func TestObjectProperties(t *testing.T) {
	rt := New()
	registerPoint(t, rt)
	p := &point{X: 1, Y: 2}

	v, err := rt.GetProperty(p, "X")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(1) {
		t.Fatalf("X = %v", v)
	}

	if err := rt.SetProperty(p, "Y", int64(9)); err != nil {
		t.Fatal(err)
	}
	if p.Y != 9 {
		t.Fatalf("Y = %d after set", p.Y)
	}

	if err := rt.UnsetProperty(p, "X"); err != nil {
		t.Fatal(err)
	}
	if p.X != 0 {
		t.Fatalf("X = %d after unset", p.X)
	}

	_, err = rt.GetProperty(p, "Z")
	var e *errors.Error
	if !errors.As(err, &e) || e.Kind != errors.KindAttributeMissing {
		t.Fatalf("want attribute_missing, got %v", err)
	}

	props := rt.Properties(p)
	if len(props) != 2 || props[0] != "X" || props[1] != "Y" {
		t.Fatalf("properties = %v", props)
	}

	p2 := &point{Y: 5}
	if got := rt.NonDefaultProperties(p2); len(got) != 1 || got[0] != "Y" {
		t.Fatalf("non-default = %v", got)
	}
}

func TestCallMethod(t *testing.T) {
	rt := New()
	registerPoint(t, rt)
	p := &point{X: 3, Y: 4}

	got, err := rt.CallMethod(p, "Norm", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != float64(25) {
		t.Fatalf("Norm = %v", got)
	}

	if _, err := rt.CallMethod(p, "Shift", []any{int64(1), int64(1)}); err != nil {
		t.Fatal(err)
	}
	if p.X != 4 || p.Y != 5 {
		t.Fatalf("after Shift: %+v", p)
	}

	if _, err := rt.CallMethod(p, "Vanish", nil); err == nil {
		t.Fatal("unknown method should fail")
	}
}

func TestCallValue(t *testing.T) {
	rt := New()
	double := func(n int64) int64 { return n * 2 }

	got, err := rt.CallValue(double, []any{int64(21)})
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(42) {
		t.Fatalf("closure = %v", got)
	}

	if _, err := rt.CallValue("not callable", nil); err == nil {
		t.Fatal("calling a string should fail")
	}
}

func TestItemAccess(t *testing.T) {
	rt := New()

	arr := bridge.NewArray()
	arr.Set(bridge.StringKey("k"), int64(1))

	ok, err := rt.HasItem(arr, "k")
	if err != nil || !ok {
		t.Fatalf("HasItem = %v, %v", ok, err)
	}
	v, err := rt.GetItem(arr, "k")
	if err != nil || v != int64(1) {
		t.Fatalf("GetItem = %v, %v", v, err)
	}
	if err := rt.SetItem(arr, int64(0), "zero"); err != nil {
		t.Fatal(err)
	}
	if v, _ := rt.GetItem(arr, int64(0)); v != "zero" {
		t.Fatalf("arr[0] = %v", v)
	}
	if err := rt.DelItem(arr, "k"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := rt.HasItem(arr, "k"); ok {
		t.Fatal("k should be gone")
	}
	if err := rt.DelItem(arr, "k"); err == nil {
		t.Fatal("deleting a missing key should fail")
	}

	m := map[string]int{"a": 1}
	if v, err := rt.GetItem(m, "a"); err != nil || v != 1 {
		t.Fatalf("map get = %v, %v", v, err)
	}
	if err := rt.SetItem(m, "b", int64(2)); err != nil {
		t.Fatal(err)
	}
	if m["b"] != 2 {
		t.Fatalf("map after set: %v", m)
	}
	if err := rt.DelItem(m, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["a"]; ok {
		t.Fatal("a should be deleted")
	}

	if _, err := rt.GetItem(int64(5), int64(0)); err == nil {
		t.Fatal("int has no items")
	}
}

func TestCount(t *testing.T) {
	rt := New()
	if n, err := rt.Count(bridge.ListArray(1, 2, 3)); err != nil || n != 3 {
		t.Fatalf("count array = %d, %v", n, err)
	}
	if n, err := rt.Count("hello"); err != nil || n != 5 {
		t.Fatalf("count string = %d, %v", n, err)
	}
	if n, err := rt.Count([]int{1, 2}); err != nil || n != 2 {
		t.Fatalf("count slice = %d, %v", n, err)
	}
	_, err := rt.Count(int64(1))
	var e *errors.Error
	if !errors.As(err, &e) || e.Kind != errors.KindNotCountable {
		t.Fatalf("want not_countable, got %v", err)
	}
}

func TestCursorOverArray(t *testing.T) {
	rt := New()
	arr := bridge.NewArray()
	arr.Set(bridge.StringKey("b"), int64(2))
	arr.Set(bridge.IntKey(0), "zero")
	arr.Set(bridge.StringKey("a"), int64(1))

	cur, err := rt.NewCursor(arr)
	if err != nil {
		t.Fatal(err)
	}
	var keys []any
	for {
		k, _, ok := cur.Next()
		if !ok {
			break
		}
		keys = append(keys, k)
	}
	if len(keys) != 3 || keys[0] != "b" || keys[1] != int64(0) || keys[2] != "a" {
		t.Fatalf("iteration order: %v", keys)
	}
	if _, _, ok := cur.Next(); ok {
		t.Fatal("exhausted cursor should stay exhausted")
	}
}

func TestCursorOverMapSorted(t *testing.T) {
	rt := New()
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	cur, err := rt.NewCursor(m)
	if err != nil {
		t.Fatal(err)
	}
	var keys []any
	for {
		k, _, ok := cur.Next()
		if !ok {
			break
		}
		keys = append(keys, k)
	}
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("map iteration order: %v", keys)
	}
}

func TestCursorNotIterable(t *testing.T) {
	rt := New()
	_, err := rt.NewCursor(int64(7))
	var e *errors.Error
	if !errors.As(err, &e) || e.Kind != errors.KindNotIterable {
		t.Fatalf("want not_iterable, got %v", err)
	}
}
