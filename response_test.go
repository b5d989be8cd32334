package netkit

import (
	"errors"
	"net/http"
	"testing"
)

type film struct {
	Title       string  `json:"title"`
	PosterPath  string  `json:"posterPath"`
	VoteAverage float64 `json:"voteAverage"`
}

func TestHandleClassification(t *testing.T) {
	var out film

	if err := Handle(nil, JSONDecoder{}, &out); !errors.Is(err, ErrNoData) {
		t.Fatalf("nil response: %v, want ErrNoData", err)
	}

	for _, code := range []int{199, 301, 404, 503} {
		err := Handle(&Response{StatusCode: code, Body: []byte(`{}`)}, JSONDecoder{}, &out)
		if !errors.Is(err, ServerError(code)) {
			t.Fatalf("status %d: %v, want server error", code, err)
		}
	}

	err := Handle(&Response{StatusCode: 200, Body: []byte(`{"title":`)}, JSONDecoder{}, &out)
	if !errors.Is(err, ErrDecoding) {
		t.Fatalf("bad body: %v, want ErrDecoding", err)
	}

	err = Handle(&Response{StatusCode: 204}, JSONDecoder{}, nil)
	if err != nil {
		t.Fatalf("nil out: %v", err)
	}
}

func TestHandleTypeMismatch(t *testing.T) {
	bodies := []string{
		`{"title":5}`,
		`{"voteAverage":"high"}`,
		`{"title":["a"]}`,
	}

	for _, body := range bodies {
		var out film

		err := Handle(&Response{StatusCode: 200, Body: []byte(body)}, JSONDecoder{}, &out)
		if !errors.Is(err, ErrDecoding) {
			t.Fatalf("Handle(%s) = %v, want ErrDecoding", body, err)
		}
	}
}

func TestHandleDecodes(t *testing.T) {
	var out film

	resp := &Response{StatusCode: http.StatusOK, Body: []byte(`{"title":"Alien","posterPath":"/a.jpg"}`)}
	if err := Handle(resp, JSONDecoder{}, &out); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if out.Title != "Alien" || out.PosterPath != "/a.jpg" {
		t.Fatalf("out = %+v", out)
	}
}

func TestJSONDecoderSnakeCase(t *testing.T) {
	body := []byte(`{"results":[{"title":"Heat","poster_path":"/h.jpg","vote_average":8.3}],"total_pages":3}`)

	var out struct {
		Results    []film `json:"results"`
		TotalPages int    `json:"totalPages"`
	}

	if err := (JSONDecoder{Keys: ConvertFromSnakeCase}).Decode(body, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if out.TotalPages != 3 || len(out.Results) != 1 {
		t.Fatalf("out = %+v", out)
	}

	got := out.Results[0]
	if got.PosterPath != "/h.jpg" || got.VoteAverage != 8.3 {
		t.Fatalf("result = %+v", got)
	}
}

func TestJSONDecoderSnakeCaseInvalid(t *testing.T) {
	var out film

	if err := (JSONDecoder{Keys: ConvertFromSnakeCase}).Decode([]byte(`nope`), &out); err == nil {
		t.Fatal("Decode succeeded on invalid JSON")
	}
}

func TestSnakeToCamel(t *testing.T) {
	tests := map[string]string{
		"title":            "title",
		"poster_path":      "posterPath",
		"vote_average":     "voteAverage",
		"original_TITLE":   "originalTitle",
		"_private_field":   "_privateField",
		"trailing_":        "trailing_",
		"double__under":    "doubleUnder",
		"___":              "___",
		"release_date_iso": "releaseDateIso",
	}

	for in, want := range tests {
		if got := SnakeToCamel(in); got != want {
			t.Fatalf("SnakeToCamel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHandleResult(t *testing.T) {
	dec := JSONDecoder{}

	r := HandleResult[film](nil, errors.New("reset"), dec)
	if !errors.Is(r.Err(), ErrUnknown) || r.Err().Error() != "reset" {
		t.Fatalf("transport error: %v", r.Err())
	}

	r = HandleResult[film](&Response{StatusCode: 500, Body: []byte(`{}`)}, nil, dec)
	if !errors.Is(r.Err(), ServerError(500)) {
		t.Fatalf("500: %v", r.Err())
	}

	r = HandleResult[film](&Response{StatusCode: 200}, nil, dec)
	if !errors.Is(r.Err(), ErrNoData) {
		t.Fatalf("empty body: %v", r.Err())
	}

	r = HandleResult[film](nil, nil, dec)
	if !errors.Is(r.Err(), ErrNoData) {
		t.Fatalf("nil response: %v", r.Err())
	}

	r = HandleResult[film](&Response{StatusCode: 200, Body: []byte(`[]`)}, nil, dec)
	if !errors.Is(r.Err(), ErrDecoding) {
		t.Fatalf("wrong shape: %v", r.Err())
	}

	r = HandleResult[film](&Response{StatusCode: 200, Body: []byte(`{"title":"Ran"}`)}, nil, dec)
	v, err := r.Get()
	if err != nil || v.Title != "Ran" {
		t.Fatalf("Get() = %+v, %v", v, err)
	}
}

func TestResult(t *testing.T) {
	ok := Success(7)
	if !ok.IsSuccess() || ok.IsFailure() || ok.Err() != nil {
		t.Fatal("Success reports failure")
	}

	if v, has := ok.Value(); !has || v != 7 {
		t.Fatalf("Value() = %d, %v", v, has)
	}

	failed := Failure[int](ErrNoData)
	if failed.IsSuccess() || !failed.IsFailure() {
		t.Fatal("Failure reports success")
	}

	if _, has := failed.Value(); has {
		t.Fatal("Value() has = true on failure")
	}

	if v, err := failed.Get(); v != 0 || !errors.Is(err, ErrNoData) {
		t.Fatalf("Get() = %d, %v", v, err)
	}
}
