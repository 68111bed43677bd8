package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/sartorproj/goforecast/internal/api"
	"github.com/sartorproj/goforecast/internal/app"
	"github.com/sartorproj/goforecast/internal/config"
	"github.com/sartorproj/goforecast/internal/store"
	"github.com/sartorproj/goforecast/pkg/logger"
	"github.com/sartorproj/goforecast/pkg/metrics"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

func newServer(cfg *config.Config) (http.Handler, *metrics.Manager) {
	m := metrics.NewManager(metrics.WithRegistry(prometheus.NewRegistry()))
	svc := app.New(
		app.WithStore(store.NewMemory()),
		app.WithMetrics(m),
		app.WithMaxForecastPoints(cfg.MaxForecastPoints),
		app.WithCrossValWorkers(2),
		app.WithMaxCrossValCutoffs(cfg.MaxCrossValCutoffs),
		app.WithMaxUncertaintySamples(cfg.MaxUncertaintySamples),
		app.WithMaxDesignColumns(cfg.MaxDesignColumns),
		app.WithMaxTuneCandidates(cfg.MaxTuneCandidates),
	)
	return api.NewRouter(svc, cfg, logger.Nop(), m), m
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.RateLimit = 0
	cfg.MaxForecastPoints = 1000
	return cfg
}

// seriesJSON renders n daily observations of a trend with weekly cycle.
func seriesJSON(n int) (string, string) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	ds := make([]string, n)
	y := make([]string, n)
	for i := 0; i < n; i++ {
		ds[i] = strconv.Quote(start.AddDate(0, 0, i).Format("2006-01-02"))
		y[i] = strconv.FormatFloat(50+0.2*float64(i)+5*math.Sin(2*math.Pi*float64(i)/7), 'f', 4, 64)
	}
	return "[" + strings.Join(ds, ",") + "]", "[" + strings.Join(y, ",") + "]"
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(rec *httptest.ResponseRecorder) errorBody {
	var body errorBody
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

func TestModelLifecycle(t *testing.T) {
	Convey("Given the API", t, func() {
		h, _ := newServer(testConfig())
		ds, y := seriesJSON(84)

		Convey("When creating a model", func() {
			body := fmt.Sprintf(`{"name":"visits","ds":%s,"y":%s,"config":{"seasonalities":[{"name":"weekly","period":7,"harmonics":3}],"uncertainty_samples":100,"time_unit":"24h"}}`, ds, y)
			rec := do(h, "POST", "/api/v1/models", body)

			So(rec.Code, ShouldEqual, http.StatusCreated)
			var created struct {
				ID      string `json:"id"`
				Name    string `json:"name"`
				NObs    int    `json:"n_obs"`
				Summary struct {
					Seasonalities []json.RawMessage `json:"seasonalities"`
				} `json:"summary"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &created), ShouldBeNil)
			So(created.ID, ShouldNotBeEmpty)
			So(created.Name, ShouldEqual, "visits")
			So(created.NObs, ShouldEqual, 84)
			So(created.Summary.Seasonalities, ShouldHaveLength, 1)
			So(rec.Header().Get("Location"), ShouldEqual, "/api/v1/models/"+created.ID)
			So(rec.Header().Get("X-Process-Time"), ShouldNotBeEmpty)

			Convey("Then it is listed and readable", func() {
				list := do(h, "GET", "/api/v1/models", "")
				So(list.Code, ShouldEqual, http.StatusOK)
				So(list.Body.String(), ShouldContainSubstring, created.ID)

				get := do(h, "GET", "/api/v1/models/"+created.ID, "")
				So(get.Code, ShouldEqual, http.StatusOK)
				So(get.Body.String(), ShouldContainSubstring, `"segments"`)
			})

			Convey("Then it predicts future periods", func() {
				pred := do(h, "POST", "/api/v1/models/"+created.ID+"/predict", `{"periods":7,"freq":"1d"}`)
				So(pred.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					ModelID string `json:"model_id"`
					Points  []struct {
						Yhat         float64            `json:"yhat"`
						Lower        float64            `json:"yhat_lower"`
						Upper        float64            `json:"yhat_upper"`
						Seasonal     map[string]float64 `json:"seasonal"`
						Extrapolated bool               `json:"extrapolated"`
					} `json:"points"`
					Warnings []string `json:"warnings"`
				}
				So(json.Unmarshal(pred.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.ModelID, ShouldEqual, created.ID)
				So(resp.Points, ShouldHaveLength, 7)
				So(resp.Warnings, ShouldHaveLength, 1)
				for _, p := range resp.Points {
					So(p.Extrapolated, ShouldBeTrue)
					So(p.Lower, ShouldBeLessThanOrEqualTo, p.Upper)
					So(p.Seasonal, ShouldContainKey, "weekly")
				}
			})

			Convey("Then it predicts explicit timestamps", func() {
				pred := do(h, "POST", "/api/v1/models/"+created.ID+"/predict", `{"ds":["2023-01-10","2023-01-11"]}`)
				So(pred.Code, ShouldEqual, http.StatusOK)
				So(pred.Body.String(), ShouldNotContainSubstring, "warnings")
			})

			Convey("Then it can be deleted", func() {
				del := do(h, "DELETE", "/api/v1/models/"+created.ID, "")
				So(del.Code, ShouldEqual, http.StatusNoContent)

				get := do(h, "GET", "/api/v1/models/"+created.ID, "")
				So(get.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(get).Error.Code, ShouldEqual, "NOT_FOUND")
			})
		})
	})
}

func TestErrorMapping(t *testing.T) {
	Convey("Given the API", t, func() {
		h, _ := newServer(testConfig())
		ds, y := seriesJSON(40)

		Convey("When the configuration is invalid", func() {
			body := fmt.Sprintf(`{"ds":%s,"y":%s,"config":{"interval_width":1.5}}`, ds, y)
			rec := do(h, "POST", "/api/v1/models", body)

			Convey("Then 422 names the field", func() {
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
				e := decodeError(rec)
				So(e.Error.Code, ShouldEqual, "INVALID_CONFIGURATION")
				So(e.Error.Field, ShouldEqual, "IntervalWidth")
			})
		})

		Convey("When the configuration asks for a billion harmonics", func() {
			body := fmt.Sprintf(`{"ds":%s,"y":%s,"config":{"seasonalities":[{"name":"weekly","period":7,"harmonics":1000000000}]}}`, ds, y)
			rec := do(h, "POST", "/api/v1/models", body)

			Convey("Then 422 names the columns limit", func() {
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
				e := decodeError(rec)
				So(e.Error.Code, ShouldEqual, "LIMIT_EXCEEDED")
				So(e.Error.Field, ShouldEqual, "columns")
			})
		})

		Convey("When too many uncertainty samples are requested", func() {
			body := fmt.Sprintf(`{"ds":%s,"y":%s,"config":{"uncertainty_samples":1000000000}}`, ds, y)
			rec := do(h, "POST", "/api/v1/models", body)

			Convey("Then 422 names the samples limit", func() {
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
				e := decodeError(rec)
				So(e.Error.Code, ShouldEqual, "LIMIT_EXCEEDED")
				So(e.Error.Field, ShouldEqual, "uncertainty_samples")
			})
		})

		Convey("When there is a single distinct timestamp", func() {
			rec := do(h, "POST", "/api/v1/models", `{"ds":["2023-01-01","2023-01-01"],"y":[1,2]}`)

			Convey("Then 422 reports insufficient data", func() {
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeError(rec).Error.Code, ShouldEqual, "INSUFFICIENT_DATA")
			})
		})

		Convey("When ds and y differ in length", func() {
			rec := do(h, "POST", "/api/v1/models", `{"ds":["2023-01-01"],"y":[1,2]}`)

			Convey("Then 400 is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(rec).Error.Code, ShouldEqual, "INVALID_REQUEST")
			})
		})

		Convey("When the body has unknown fields or bad dates", func() {
			unknown := do(h, "POST", "/api/v1/models", `{"series":[]}`)
			badDate := do(h, "POST", "/api/v1/models", `{"ds":["yesterday"],"y":[1]}`)

			Convey("Then 400 is returned", func() {
				So(unknown.Code, ShouldEqual, http.StatusBadRequest)
				So(badDate.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When predicting an unknown model", func() {
			rec := do(h, "POST", "/api/v1/models/"+store.NewID()+"/predict", `{"periods":1,"freq":"24h"}`)

			Convey("Then 404 is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the route does not exist", func() {
			rec := do(h, "GET", "/api/v2/nothing", "")

			Convey("Then 404 uses the error shape", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(rec).Error.Code, ShouldEqual, "NOT_FOUND")
			})
		})
	})
}

func TestBodyLimit(t *testing.T) {
	Convey("Given a small body limit", t, func() {
		cfg := testConfig()
		cfg.MaxBodyBytes = 64
		h, _ := newServer(cfg)
		ds, y := seriesJSON(40)

		Convey("When posting a larger body", func() {
			rec := do(h, "POST", "/api/v1/models", fmt.Sprintf(`{"ds":%s,"y":%s}`, ds, y))

			Convey("Then 413 is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})
	})
}

func TestCrossValidateEndpoint(t *testing.T) {
	Convey("Given the API", t, func() {
		h, _ := newServer(testConfig())

		Convey("When cross-validating a series", func() {
			ds, y := seriesJSON(84)
			body := fmt.Sprintf(`{"ds":%s,"y":%s,"config":{"seasonalities":[{"name":"weekly","period":7,"harmonics":3}],"uncertainty_samples":0},"horizon":"7d","period":"7d","include_rows":true}`, ds, y)
			rec := do(h, "POST", "/api/v1/crossval", body)

			Convey("Then per-horizon metrics are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Cutoffs  []string          `json:"cutoffs"`
					Horizons []json.RawMessage `json:"horizons"`
					Rows     []json.RawMessage `json:"rows"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(len(resp.Cutoffs), ShouldBeGreaterThan, 0)
				So(resp.Horizons, ShouldHaveLength, 7)
				So(len(resp.Rows), ShouldEqual, 7*len(resp.Cutoffs))
			})
		})

		Convey("When the cutoff period is a microsecond", func() {
			ds, y := seriesJSON(84)
			started := time.Now()
			rec := do(h, "POST", "/api/v1/crossval", fmt.Sprintf(`{"ds":%s,"y":%s,"horizon":"7d","period":"1us"}`, ds, y))

			Convey("Then 422 is returned without enumerating cutoffs", func() {
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
				e := decodeError(rec)
				So(e.Error.Code, ShouldEqual, "LIMIT_EXCEEDED")
				So(e.Error.Field, ShouldEqual, "period")
				So(time.Since(started), ShouldBeLessThan, 5*time.Second)
			})
		})

		Convey("When the series is too short", func() {
			ds, y := seriesJSON(10)
			rec := do(h, "POST", "/api/v1/crossval", fmt.Sprintf(`{"ds":%s,"y":%s,"horizon":"7d"}`, ds, y))

			Convey("Then 422 reports no cutoffs", func() {
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeError(rec).Error.Code, ShouldEqual, "NO_CUTOFFS")
			})
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a rate limit of one request", t, func() {
		cfg := testConfig()
		cfg.RateLimit = 0.001
		cfg.RateBurst = 1
		h, _ := newServer(cfg)

		Convey("When the same client calls twice", func() {
			first := do(h, "GET", "/health", "")
			second := do(h, "GET", "/health", "")

			Convey("Then the second call is limited", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeError(second).Error.Code, ShouldEqual, "RATE_LIMITED")
			})
		})
	})
}

func TestHealthAndMetrics(t *testing.T) {
	Convey("Given the API", t, func() {
		h, _ := newServer(testConfig())

		Convey("When checking health", func() {
			So(do(h, "GET", "/health", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, "GET", "/health/store", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("When scraping metrics after a request", func() {
			do(h, "GET", "/api/v1/models", "")
			rec := do(h, "GET", "/metrics", "")

			Convey("Then the request is counted under its route", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `route="/api/v1/models`)
			})
		})

		Convey("When preflighting a CORS request", func() {
			req := httptest.NewRequest("OPTIONS", "/api/v1/models", bytes.NewReader(nil))
			req.Header.Set("Origin", "https://example.com")
			req.Header.Set("Access-Control-Request-Method", "POST")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Convey("Then the origin is allowed", func() {
				So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			})
		})
	})
}
