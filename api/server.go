package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	database "github.com/windwatts/curtailment-mining-watcher/database/db"
	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	"github.com/windwatts/curtailment-mining-watcher/reconcile"
)

// SummaryServer exposes the persisted daily and bitcoin summaries over a
// small read-only HTTP surface.
type SummaryServer struct {
	ctx    context.Context
	logger logging.Logger
	db     *gorm.DB
	server *http.Server
}

type DailySummaryResp struct {
	Date              string `json:"date"`
	TotalCurtailedMWh string `json:"totalCurtailedMWh"`
	TotalPayment      string `json:"totalPayment"`
	RecordCount       int64  `json:"recordCount"`
}

type BitcoinSummaryResp struct {
	Date              string `json:"date"`
	MinerModel        string `json:"minerModel"`
	TotalBitcoinMined string `json:"totalBitcoinMined"`
}

func NewSummaryServer(ctx context.Context, logger logging.Logger, addr string) *SummaryServer {
	s := &SummaryServer{
		ctx:    ctx,
		logger: logger,
		db:     database.GetDB(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.OnHealthz)
	mux.HandleFunc("/summary/daily", s.OnQueryDailySummary)
	mux.HandleFunc("/summary/bitcoin", s.OnQueryBitcoinSummary)
	s.server = &http.Server{
		Addr:         addr,
		WriteTimeout: time.Second * 25,
		Handler:      mux,
	}
	return s
}

func (s *SummaryServer) Shutdown() error {
	return s.server.Shutdown(s.ctx)
}

func (s *SummaryServer) Run() error {
	s.logger.Info("starting summary api httpserver on %s", s.server.Addr)
	go func() {
		err := s.server.ListenAndServe()
		if err != nil {
			if err == http.ErrServerClosed {
				s.logger.Info("server closed under request")
			} else {
				s.logger.Critical("server closed unexpected %s", err)
			}
		}
	}()
	<-s.ctx.Done()
	s.logger.Info("summary api receives shutdown signal")
	return nil
}

func (s *SummaryServer) OnHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// dateRange parses the from/to query parameters, defaulting to the last 30
// days when absent.
func (s *SummaryServer) dateRange(r *http.Request) (time.Time, time.Time, error) {
	query := r.URL.Query()
	to := reconcile.Day(time.Now().UTC())
	from := to.AddDate(0, 0, -30)
	var err error
	if v := query.Get("from"); v != "" {
		if from, err = reconcile.ParseDate(v); err != nil {
			return from, to, fmt.Errorf("bad from parameter %w", err)
		}
	}
	if v := query.Get("to"); v != "" {
		if to, err = reconcile.ParseDate(v); err != nil {
			return from, to, fmt.Errorf("bad to parameter %w", err)
		}
	}
	if from.After(to) {
		return from, to, fmt.Errorf("from after to")
	}
	return from, to, nil
}

func (s *SummaryServer) OnQueryDailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")

	from, to, err := s.dateRange(r)
	if err != nil {
		s.jsonError(w, err.Error(), 400)
		return
	}

	var summaries []settlement.DailySummary
	err = s.db.Model(&settlement.DailySummary{}).
		Where("date >= ? AND date <= ?", from, to).
		Order("date asc").Find(&summaries).Error
	if err != nil {
		s.logger.Error("failed to query daily summaries %s", err)
		s.jsonError(w, "internal error", 500)
		return
	}

	resp := make([]*DailySummaryResp, 0, len(summaries))
	for _, d := range summaries {
		resp = append(resp, &DailySummaryResp{
			Date:              d.Date.Format("2006-01-02"),
			TotalCurtailedMWh: d.TotalCurtailedEnergy.String(),
			TotalPayment:      d.TotalPayment.String(),
			RecordCount:       d.RecordCount,
		})
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *SummaryServer) OnQueryBitcoinSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")

	from, to, err := s.dateRange(r)
	if err != nil {
		s.jsonError(w, err.Error(), 400)
		return
	}

	query := s.db.Model(&settlement.BitcoinDailySummary{}).
		Where("date >= ? AND date <= ?", from, to)
	if model := r.URL.Query().Get("model"); model != "" {
		query = query.Where("miner_model = ?", model)
	}

	var summaries []settlement.BitcoinDailySummary
	if err := query.Order("date asc, miner_model asc").Find(&summaries).Error; err != nil {
		s.logger.Error("failed to query bitcoin summaries %s", err)
		s.jsonError(w, "internal error", 500)
		return
	}

	resp := make([]*BitcoinSummaryResp, 0, len(summaries))
	for _, d := range summaries {
		resp = append(resp, &BitcoinSummaryResp{
			Date:              d.Date.Format("2006-01-02"),
			MinerModel:        d.MinerModel,
			TotalBitcoinMined: d.BitcoinMined.String(),
		})
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *SummaryServer) jsonError(w http.ResponseWriter, err interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	var msg struct {
		Error string `json:"error"`
	}
	msg.Error = err.(string)
	json.NewEncoder(w).Encode(msg)
}
