// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

// DefaultCandidates are well-known public resolvers used when the
// configuration does not list any.
var DefaultCandidates = []ServerPair{
	MustParsePair("1.1.1.1", "1.0.0.1", "Cloudflare"),
	MustParsePair("9.9.9.9", "149.112.112.112", "Quad9"),
	MustParsePair("208.67.222.222", "208.67.220.220", "OpenDNS"),
	MustParsePair("64.6.64.6", "64.6.65.6", "Verisign"),
	MustParsePair("91.239.100.100", "89.233.43.71", "UncensoredDNS"),
	MustParsePair("185.228.168.9", "185.228.169.9", "CleanBrowsing"),
	MustParsePair("77.88.8.8", "77.88.8.1", "Yandex"),
	MustParsePair("176.103.130.130", "176.103.130.131", "AdGuard"),
	MustParsePair("156.154.70.1", "156.154.71.1", "DNS Advantage"),
	MustParsePair("199.85.126.10", "199.85.127.10", "Norton"),
	MustParsePair("81.218.119.11", "209.88.198.133", "GreenTeam"),
	MustParsePair("195.46.39.39", "195.46.39.40", "SafeDNS"),
	MustParsePair("208.76.50.50", "208.76.51.51", "SmartViper"),
	MustParsePair("216.146.35.35", "216.146.36.36", "Dyn"),
	MustParsePair("37.235.1.174", "37.235.1.177", "FreeDNS"),
	MustParsePair("198.101.242.72", "23.253.163.53", "Alternate DNS"),
	MustParsePair("109.69.8.51", "8.8.8.8", "puntCAT"),
	MustParsePair("101.101.101.101", "101.102.103.104", "Quad101"),
	MustParsePair("80.67.169.12", "80.67.169.40", "FDN"),
	MustParsePair("185.121.177.177", "185.121.177.53", "OpenNIC"),
	MustParsePair("195.10.46.179", "212.82.225.7", "AS250.net"),
	MustParsePair("194.168.4.100", "194.168.8.100", "Orange"),
	MustParsePair("203.122.222.6", "203.122.223.6", "SingNet"),
	MustParsePair("209.244.0.3", "209.244.0.4", "Level3"),
	MustParsePair("8.8.8.8", "8.8.4.4", "Google"),
}
