package readings

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/user/weather-api-go/apperror"
	"github.com/user/weather-api-go/respond"
)

// Handlers exposes the reading catalog over HTTP.
type Handlers struct {
	service  *Service
	validate *validator.Validate
}

// NewHandlers creates the reading catalog handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type listResponse struct {
	respond.Envelope
	TotalPages  int64     `json:"totalPages"`
	WeatherData []Reading `json:"weatherData"`
}

type byDeviceResponse struct {
	respond.Envelope
	TotalPages int64     `json:"totalPages"`
	Data       []Reading `json:"data"`
}

type readingResponse struct {
	respond.Envelope
	Data *Reading `json:"data"`
}

type insertResponse struct {
	respond.Envelope
	Reading *Reading `json:"reading"`
}

type insertManyResponse struct {
	respond.Envelope
	Count    int `json:"count"`
	Readings struct {
		Acknowledged bool                 `json:"acknowledged"`
		InsertedIDs  []primitive.ObjectID `json:"insertedIds"`
	} `json:"readings"`
}

type maxPrecipitationResponse struct {
	respond.Envelope
	Data []MaxPrecipitationRow `json:"data"`
}

type weatherDataResponse struct {
	respond.Envelope
	TotalPages int64              `json:"totalPages"`
	Data       []WeatherDataPoint `json:"data"`
}

type maxTemperatureResponse struct {
	respond.Envelope
	Data []MaxTemperatureRow `json:"data"`
}

type updatePrecipitationResponse struct {
	respond.Envelope
	Data *PrecipitationUpdate `json:"data"`
}

type deleteResponse struct {
	respond.Envelope
	DeletedCount int64 `json:"deletedCount"`
}

// HandleList handles GET /weather-reading.
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data, totalPages, err := h.service.List(r.Context(), q.Get("page"), q.Get("limit"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, listResponse{
			Envelope:    respond.OK("Got list of all weather data readings"),
			TotalPages:  totalPages,
			WeatherData: data,
		})
	}
}

// HandleListByDevice handles GET /weather-reading/by-device.
func (h *Handlers) HandleListByDevice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		deviceName := q.Get("deviceName")
		data, totalPages, err := h.service.ListByDevice(r.Context(), deviceName, q.Get("page"), q.Get("limit"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, byDeviceResponse{
			Envelope:   respond.OK(fmt.Sprintf("Successfully fetched weather data for %s.", deviceName)),
			TotalPages: totalPages,
			Data:       data,
		})
	}
}

// HandleGetByID handles GET /weather-reading/{id}.
func (h *Handlers) HandleGetByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		reading, err := h.service.GetByID(r.Context(), id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, readingResponse{
			Envelope: respond.OK("Weather Reading found for id:" + id),
			Data:     reading,
		})
	}
}

// HandleInsert handles POST /weather-reading.
func (h *Handlers) HandleInsert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in ReadingInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		if err := h.validate.Struct(in); err != nil {
			respond.Error(w, apperror.NewValidationError("Device name and time are required.", err))
			return
		}

		reading, err := h.service.Insert(r.Context(), in)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, insertResponse{
			Envelope: respond.OK("Added a new weather data reading."),
			Reading:  reading,
		})
	}
}

// HandleInsertMany handles POST /weather-reading/insert-readings. The body is
// a bare JSON array of reading inputs.
func (h *Handlers) HandleInsertMany() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ins []ReadingInput
		if err := json.NewDecoder(r.Body).Decode(&ins); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		for _, in := range ins {
			if err := h.validate.Struct(in); err != nil {
				respond.Error(w, apperror.NewValidationError("Device name and time are required for every reading.", err))
				return
			}
		}

		ids, err := h.service.InsertMany(r.Context(), ins)
		if err != nil {
			respond.Error(w, err)
			return
		}

		resp := insertManyResponse{
			Envelope: respond.OK("Added multiple weather data readings for a single station."),
			Count:    len(ins),
		}
		resp.Readings.Acknowledged = true
		resp.Readings.InsertedIDs = ids
		respond.JSON(w, http.StatusOK, resp)
	}
}

// HandleMaxPrecipitation handles GET /weather-reading/max-precipitation.
func (h *Handlers) HandleMaxPrecipitation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceName := r.URL.Query().Get("deviceName")
		rows, err := h.service.MaxPrecipitation(r.Context(), deviceName)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, maxPrecipitationResponse{
			Envelope: respond.OK("Maximum precipitation recorded in the last 5 months for device: " + deviceName),
			Data:     rows,
		})
	}
}

// HandleReadingsAt handles GET /weather-reading/weather-data.
func (h *Handlers) HandleReadingsAt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		deviceName := q.Get("deviceName")
		dateTime := q.Get("dateTime")

		points, totalPages, err := h.service.ReadingsAt(r.Context(), deviceName, dateTime, q.Get("page"), q.Get("limit"))
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, weatherDataResponse{
			Envelope: respond.OK(fmt.Sprintf(
				"Weather data found for the specified station '%s' at %s.", deviceName, dateTime,
			)),
			TotalPages: totalPages,
			Data:       points,
		})
	}
}

// HandleMaxTemperature handles GET /weather-reading/max-temperature.
func (h *Handlers) HandleMaxTemperature() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rows, err := h.service.MaxTemperature(r.Context(), q.Get("startDate"), q.Get("endDate"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, maxTemperatureResponse{
			Envelope: respond.OK("Maximum temperatures found for the specified date/time range."),
			Data:     rows,
		})
	}
}

// HandleUpdatePrecipitation handles PATCH /weather-reading/update-precipitation.
func (h *Handlers) HandleUpdatePrecipitation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdatePrecipitationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		update, err := h.service.UpdatePrecipitation(r.Context(), req)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, updatePrecipitationResponse{
			Envelope: respond.OK("Precipitation value updated successfully."),
			Data:     update,
		})
	}
}

// HandleDelete handles DELETE /weather-reading/delete.
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeleteReadingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		res, err := h.service.Delete(r.Context(), req.WeatherDataID)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, deleteResponse{
			Envelope:     respond.OK("Weather data deleted and logged successfully."),
			DeletedCount: res.DeletedCount,
		})
	}
}
