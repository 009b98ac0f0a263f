// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package connstring parses the subset of the MongoDB connection string
// format that configures topology monitoring.
package connstring

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const scheme = "mongodb://"

// Parse parses the provided uri and returns a ConnString object.
func Parse(s string) (ConnString, error) {
	var p parser
	err := p.parse(s)
	if err != nil {
		err = errors.Wrapf(err, "error parsing uri (%s)", s)
	}
	return p.ConnString, err
}

// ConnectMode informs the driver on how to connect
// to the server.
type ConnectMode uint8

// ConnectMode constants.
const (
	AutoConnect ConnectMode = iota
	SingleConnect
)

func (m ConnectMode) String() string {
	if m == SingleConnect {
		return "direct"
	}
	return "automatic"
}

// ConnString represents a connection string to mongodb.
type ConnString struct {
	Original                  string
	AppName                   string
	Connect                   ConnectMode
	ConnectTimeout            time.Duration
	HeartbeatInterval         time.Duration
	Hosts                     []string
	ReplicaSet                string
	ServerSelectionTimeout    time.Duration
	UnknownOptions            map[string][]string
	connectSet                bool
	heartbeatIntervalSet      bool
	connectTimeoutSet         bool
	serverSelectionTimeoutSet bool
}

// ConnectSet reports whether the connect option was present.
func (cs ConnString) ConnectSet() bool { return cs.connectSet }

// HeartbeatIntervalSet reports whether heartbeatFrequencyMS was present.
func (cs ConnString) HeartbeatIntervalSet() bool { return cs.heartbeatIntervalSet }

// ConnectTimeoutSet reports whether connectTimeoutMS was present.
func (cs ConnString) ConnectTimeoutSet() bool { return cs.connectTimeoutSet }

// ServerSelectionTimeoutSet reports whether serverSelectionTimeoutMS was present.
func (cs ConnString) ServerSelectionTimeoutSet() bool { return cs.serverSelectionTimeoutSet }

func (cs ConnString) String() string {
	return cs.Original
}

type parser struct {
	ConnString
}

func (p *parser) parse(original string) error {
	p.Original = original

	if !strings.HasPrefix(original, scheme) {
		return errors.New("scheme must be \"mongodb\"")
	}

	// user info, database and auth options are not used by topology
	// monitoring; the host list and the query are.
	uri := original[len(scheme):]

	var hosts string
	var query string
	if idx := strings.IndexAny(uri, "/?"); idx != -1 {
		hosts = uri[:idx]
		rest := uri[idx:]
		if q := strings.Index(rest, "?"); q != -1 {
			query = rest[q+1:]
		}
	} else {
		hosts = uri
	}

	if idx := strings.LastIndex(hosts, "@"); idx != -1 {
		hosts = hosts[idx+1:]
	}

	if hosts == "" {
		return errors.New("must have at least 1 host")
	}

	for _, host := range strings.Split(hosts, ",") {
		if err := p.addHost(host); err != nil {
			return errors.Wrapf(err, "invalid host \"%s\"", host)
		}
	}

	if query == "" {
		return nil
	}

	for _, pair := range strings.FieldsFunc(query, func(r rune) bool { return r == ';' || r == '&' }) {
		if err := p.addOption(pair); err != nil {
			return err
		}
	}

	return nil
}

func (p *parser) addHost(host string) error {
	if host == "" {
		return errors.New("host must not be empty")
	}
	host, err := url.QueryUnescape(host)
	if err != nil {
		return errors.Wrap(err, "invalid host")
	}

	if strings.HasSuffix(host, ".sock") {
		p.Hosts = append(p.Hosts, host)
		return nil
	}

	_, port, err := net.SplitHostPort(host)
	if err != nil {
		if !strings.Contains(err.Error(), "missing port in address") {
			return err
		}
		p.Hosts = append(p.Hosts, host)
		return nil
	}

	if port != "" {
		d, err := strconv.Atoi(port)
		if err != nil {
			return errors.Wrap(err, "port must be an integer")
		}
		if d <= 0 || d >= 65536 {
			return errors.New("port must be in the range [1, 65535]")
		}
	}
	p.Hosts = append(p.Hosts, host)
	return nil
}

func (p *parser) addOption(pair string) error {
	kv := strings.SplitN(pair, "=", 2)
	if len(kv) != 2 || kv[0] == "" {
		return errors.Errorf("invalid option \"%s\"", pair)
	}

	key, err := url.QueryUnescape(kv[0])
	if err != nil {
		return errors.Wrapf(err, "invalid option key \"%s\"", kv[0])
	}

	value, err := url.QueryUnescape(kv[1])
	if err != nil {
		return errors.Wrapf(err, "invalid option value \"%s\"", kv[1])
	}

	lowerKey := strings.ToLower(key)
	switch lowerKey {
	case "appname":
		p.AppName = value
	case "connect":
		switch strings.ToLower(value) {
		case "automatic":
			p.Connect = AutoConnect
		case "direct":
			p.Connect = SingleConnect
		default:
			return errors.Errorf("invalid 'connect' value: %s", value)
		}
		p.connectSet = true
	case "connecttimeoutms":
		n, err := parseMS(value)
		if err != nil {
			return errors.Wrapf(err, "invalid value for %s", key)
		}
		p.ConnectTimeout = n
		p.connectTimeoutSet = true
	case "heartbeatfrequencyms", "heartbeatintervalms":
		n, err := parseMS(value)
		if err != nil {
			return errors.Wrapf(err, "invalid value for %s", key)
		}
		p.HeartbeatInterval = n
		p.heartbeatIntervalSet = true
	case "replicaset":
		p.ReplicaSet = value
	case "serverselectiontimeoutms":
		n, err := parseMS(value)
		if err != nil {
			return errors.Wrapf(err, "invalid value for %s", key)
		}
		p.ServerSelectionTimeout = n
		p.serverSelectionTimeoutSet = true
	default:
		if p.UnknownOptions == nil {
			p.UnknownOptions = make(map[string][]string)
		}
		p.UnknownOptions[lowerKey] = append(p.UnknownOptions[lowerKey], value)
	}

	return nil
}

func parseMS(value string) (time.Duration, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("must be non-negative")
	}
	return time.Duration(n) * time.Millisecond, nil
}
