package ed_patterns

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func TestBinaryInputsEnumerateBits(t *testing.T) {
	inputs := CreateInputPatterns(8, 3, BinaryInputs, rand.New(rand.NewSource(1)))
	want := [][]float64{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
	}
	if !reflect.DeepEqual(inputs, want) {
		t.Fatalf("inputs = %v", inputs)
	}
}

func TestRandomInputsInUnitInterval(t *testing.T) {
	inputs := CreateInputPatterns(20, 4, RandomInputs, rand.New(rand.NewSource(3)))
	for p, input := range inputs {
		for s, v := range input {
			if v < 0 || v >= 1 {
				t.Fatalf("input[%d][%d] = %v", p, s, v)
			}
		}
	}
}

func TestParityMatchesXOR(t *testing.T) {
	handler, err := PatternHandlerFactory("parity", nil)
	if err != nil {
		t.Fatal(err)
	}
	set, err := CreatePatternSet(4, 2, BinaryInputs, []EDPatternHandler{handler}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(set, XORPatterns()) {
		t.Fatalf("parity over 2 bits = %v, want XOR", set)
	}
}

func TestMirrorDetectsSymmetry(t *testing.T) {
	inputs := [][]float64{
		{1, 0, 0, 1},
		{1, 1, 0, 1},
		{0, 1, 1, 0},
		{1, 0, 1},
		{0, 1, 1},
	}
	column, err := MirrorPatterns{}.CreateTargetColumn(inputs, &TargetContext{})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 0, 1, 1, 0}
	if !reflect.DeepEqual(column, want) {
		t.Fatalf("mirror = %v, want %v", column, want)
	}
}

func TestOneHotColumnsAreDistinct(t *testing.T) {
	handlers := []EDPatternHandler{OneHotPatterns{}, OneHotPatterns{}, OneHotPatterns{}}
	set, err := CreatePatternSet(4, 2, BinaryInputs, handlers, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatal(err)
	}
	seen := map[int]bool{}
	for column := 0; column < set.Outputs(); column++ {
		hot := -1
		for p := 0; p < set.Len(); p++ {
			switch set.Targets[p][column] {
			case 1:
				if hot >= 0 {
					t.Fatalf("column %d has two hot patterns", column)
				}
				hot = p
			case 0:
			default:
				t.Fatalf("column %d has value %v", column, set.Targets[p][column])
			}
		}
		if hot < 0 || seen[hot] {
			t.Fatalf("column %d picked pattern %d", column, hot)
		}
		seen[hot] = true
	}

	tooMany := []EDPatternHandler{OneHotPatterns{}, OneHotPatterns{}, OneHotPatterns{}}
	if _, err := CreatePatternSet(2, 1, BinaryInputs, tooMany, rand.New(rand.NewSource(9))); err == nil {
		t.Fatal("expected an error when one-hot columns outnumber patterns")
	}
}

func TestManualPatternsAsk(t *testing.T) {
	ask := func(pattern int, input []float64, output int) (float64, error) {
		return float64(pattern*10 + output), nil
	}
	handler, err := PatternHandlerFactory("3", ask)
	if err != nil {
		t.Fatal(err)
	}
	set, err := CreatePatternSet(3, 2, BinaryInputs, []EDPatternHandler{ParityPatterns{}, handler}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	for p := 0; p < 3; p++ {
		if set.Targets[p][1] != float64(p*10+1) {
			t.Errorf("manual target %d = %v", p, set.Targets[p][1])
		}
	}

	failing := ManualPatterns{Ask: func(int, []float64, int) (float64, error) { return 0, errors.New("quit") }}
	if _, err := CreatePatternSet(2, 1, BinaryInputs, []EDPatternHandler{failing}, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected the ask error to propagate")
	}
	if _, err := PatternHandlerFactory("manual", nil); err == nil {
		t.Fatal("manual without an ask function should be rejected")
	}
}

func TestRandomTargetsAreSeeded(t *testing.T) {
	handlers := []EDPatternHandler{RandomBinaryPatterns{}, RealRandomPatterns{}}
	a, err := CreatePatternSet(16, 4, RandomInputs, handlers, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := CreatePatternSet(16, 4, RandomInputs, handlers, rand.New(rand.NewSource(5)))
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different pattern sets")
	}
	if err := a.Validate(); err != nil {
		t.Fatal(err)
	}
	for p := range a.Targets {
		if v := a.Targets[p][0]; v != 0 && v != 1 {
			t.Fatalf("random binary target %v", v)
		}
	}
}

func TestPatternNames(t *testing.T) {
	for _, name := range []string{"random", "PARITY", "Mirror", "real_random", "one_hot", "4"} {
		if _, err := PatternHandlerFactory(name, nil); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := PatternHandlerFactory("checkerboard", nil); err == nil {
		t.Error("unknown pattern accepted")
	}
	if got, err := PatternTypeName("5"); err != nil || got != "ONE_HOT" {
		t.Errorf("PatternTypeName(5) = %q, %v", got, err)
	}
	if _, err := ParseInputMode("sideways"); err == nil {
		t.Error("unknown input mode accepted")
	}
}

func TestValidateRejectsRaggedSets(t *testing.T) {
	set := PatternSet{
		Inputs:  [][]float64{{0, 1}, {1}},
		Targets: [][]float64{{1}, {0}},
	}
	if err := set.Validate(); err == nil {
		t.Fatal("ragged inputs accepted")
	}
	if err := (PatternSet{}).Validate(); err == nil {
		t.Fatal("empty set accepted")
	}
}
