package visdiff

import "testing"

func TestCSSValuesMatch(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Rgb( 1 , 2 , 3 )", "rgb(1,2,3)", true},
		{"", "", true}, // missing on both sides
		{"10px", "11px", false},
		{"700", "700", true},
		{"BOLD", "bold", true},
		{"10px 20px", "10px  20px", true},
		{"none", "", false},
	}
	for _, tc := range cases {
		if got := cssValuesMatch(tc.a, tc.b); got != tc.want {
			t.Errorf("cssValuesMatch(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCSSValuesMatchReflexive(t *testing.T) {
	values := []string{"rgb(1, 2, 3)", "10px", "", "bold", "1px solid Red"}
	for _, v := range values {
		if !cssValuesMatch(v, v) {
			t.Errorf("cssValuesMatch(%q, %q) not reflexive", v, v)
		}
	}
}

func fullVector(color string) PropertyVector {
	vec := PropertyVector{}
	for _, sel := range selectorClasses {
		m := map[string]string{}
		for _, p := range comparedProps {
			m[p] = "10px"
		}
		m["color"] = color
		vec[sel] = m
	}
	return vec
}

func TestPerfectMatch(t *testing.T) {
	orig := fullVector("rgb(0, 0, 0)")
	clone := fullVector("rgb(0,0,0)") // same after normalization

	res := CompareVectors("home", orig, clone)
	if !res.Passed {
		t.Error("expected pass")
	}
	if res.MatchPercentage != "100.00" {
		t.Errorf("expected 100.00, got %s", res.MatchPercentage)
	}
	if len(res.Mismatches) != 0 {
		t.Errorf("expected no mismatches, got %d", len(res.Mismatches))
	}
	if want := len(selectorClasses) * len(comparedProps); len(res.Matches) != want {
		t.Errorf("expected %d matches, got %d", want, len(res.Matches))
	}
}

func TestSkippedClassNotCounted(t *testing.T) {
	orig := fullVector("red")
	clone := fullVector("red")
	delete(clone, "nav") // clone has no nav: class skipped entirely

	res := CompareVectors("home", orig, clone)
	if res.MatchPercentage != "100.00" {
		t.Errorf("skipped class must not count as mismatch, got %s", res.MatchPercentage)
	}
	if want := (len(selectorClasses) - 1) * len(comparedProps); len(res.Matches) != want {
		t.Errorf("expected %d matches, got %d", want, len(res.Matches))
	}
}

func TestSymmetry(t *testing.T) {
	orig := fullVector("rgb(0, 0, 0)")
	clone := fullVector("rgb(255, 255, 255)")
	clone["button"]["fontWeight"] = "900"

	ab := CompareVectors("p", orig, clone)
	ba := CompareVectors("p", clone, orig)

	if len(ab.Mismatches) != len(ba.Mismatches) {
		t.Errorf("mismatch count not symmetric: %d vs %d", len(ab.Mismatches), len(ba.Mismatches))
	}
	if ab.MatchPercentage != ba.MatchPercentage {
		t.Errorf("percentage not symmetric: %s vs %s", ab.MatchPercentage, ba.MatchPercentage)
	}
	// Swapping sides swaps the original/generated fields of each entry.
	if ab.Mismatches[0].Original != ba.Mismatches[0].Generated ||
		ab.Mismatches[0].Generated != ba.Mismatches[0].Original {
		t.Error("expected original/generated fields swapped")
	}
}

func TestThreshold(t *testing.T) {
	// Single class present on both sides; mismatch 2 of 9 props: 77.78% < 80.
	orig := PropertyVector{"button": map[string]string{}}
	clone := PropertyVector{"button": map[string]string{}}
	for i, p := range comparedProps {
		orig["button"][p] = "same"
		if i < 2 {
			clone["button"][p] = "different"
		} else {
			clone["button"][p] = "same"
		}
	}

	res := CompareVectors("p", orig, clone)
	if res.Passed {
		t.Errorf("expected fail below threshold, got pass at %s", res.MatchPercentage)
	}
	if res.MatchPercentage != "77.78" {
		t.Errorf("expected 77.78, got %s", res.MatchPercentage)
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Page: "home", Passed: true},
		{Page: "tasks", Passed: false},
		{Page: "broken", Error: "original: navigation timeout"},
	}
	s := Summarize(results)
	if s.Passed != 1 || s.Failed != 2 {
		t.Errorf("expected 1/2, got %d/%d", s.Passed, s.Failed)
	}
	if s.Accuracy != "33.33" {
		t.Errorf("expected 33.33, got %s", s.Accuracy)
	}
}
