package main

//go:generate swag init -g cmd/trader/main.go -o docs

// @title           Autotrader API
// @version         0.1.0
// @description     Multi-strategy trading automation: cycle orchestration, confidence gating, and dashboard feeds.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
