package marketdata

// sp500 is the S&P 500 membership as of early 2024, including symbols
// delisted since (FRCB, SBNY, SIVBQ). Keeping the dead names in the
// historical universe avoids survivorship bias in backtests. Share
// classes use the dashed form the chart API expects.
var sp500 = []string{
	"FRCB", "SBNY", "SIVBQ", "AIG", "C", "BAC", "MMM", "AOS", "ABT", "ABBV",
	"ACN", "ADBE", "AMD", "AES", "AFL", "A", "APD", "ABNB", "AKAM", "ALB",
	"ARE", "ALGN", "ALLE", "LNT", "ALL", "GOOGL", "GOOG", "MO", "AMZN", "AMCR",
	"AEE", "AAL", "AEP", "AXP", "AMT", "AWK", "AMP", "AME", "AMGN", "APH",
	"ADI", "AON", "APA", "AAPL", "AMAT", "APTV", "ACGL", "ADM", "ANET", "AJG",
	"AIZ", "T", "ATO", "ADSK", "ADP", "AZO", "AVB", "AVY", "AXON", "BKR",
	"BALL", "BK", "BBWI", "BAX", "BDX", "BRK-B", "BBY", "BIO", "TECH", "BIIB",
	"BLK", "BX", "BA", "BKNG", "BWA", "BXP", "BSX", "BMY", "AVGO", "BR",
	"BRO", "BF-B", "BG", "BLDR", "CHRW", "CDNS", "CZR", "CPT", "CPB", "COF",
	"CAH", "KMX", "CCL", "CARR", "CAT", "CBOE", "CBRE", "CDW", "CE", "COR",
	"CNC", "CNP", "CF", "CHTR", "CVX", "CMG", "CB", "CHD", "CI", "CINF",
	"CTAS", "CSCO", "CFG", "CLX", "CME", "CMS", "KO", "CTSH", "CL", "CMCSA",
	"CMA", "CAG", "COP", "ED", "STZ", "CEG", "COO", "CPRT", "GLW", "CTVA",
	"CSGP", "COST", "CTRA", "CCI", "CSX", "CMI", "CVS", "DHI", "DAN", "DAR",
	"DRI", "DVA", "DE", "DAL", "XRAY", "DVN", "DXCM", "FANG", "DLR", "DG",
	"DLTR", "D", "DPZ", "DOV", "DOW", "DTE", "DUK", "DD", "EMN", "ETN",
	"EBAY", "ECL", "EIX", "EW", "EA", "ELV", "LLY", "EMR", "ENPH", "ETR",
	"EOG", "EPAM", "EQT", "EFX", "EQIX", "EQR", "ESS", "EL", "ETSY", "EG",
	"EVRG", "ES", "EXC", "EXPE", "EXPD", "EXR", "XOM", "FFIV", "F", "FAST",
	"FRT", "FDX", "FIS", "FITB", "FSLR", "FE", "FMC", "FTNT", "FTV", "FOXA",
	"FOX", "BEN", "FCX", "GRMN", "IT", "GE", "GEHC", "GEN", "GNRC", "GD",
	"GIS", "GM", "GPC", "GILD", "GPN", "GL", "GS", "HAL", "HIG", "HAS",
	"HCA", "HSIC", "HSY", "HPE", "HLT", "HOLX", "HD", "HON", "HRL", "HST",
	"HWM", "HPQ", "HUBB", "HUM", "HBAN", "HII", "IBM", "IEX", "IDXX", "ITW",
	"ILMN", "INCY", "IR", "INTC", "ICE", "IP", "IFF", "INTU", "ISRG", "IVZ",
	"INVH", "IQV", "IRM", "JBHT", "JBL", "JKHY", "J", "JNJ", "JCI", "JPM",
	"K", "KVUE", "KDP", "KEY", "KEYS", "KMB", "KIM", "KMI", "KLAC", "KHC",
	"KR", "LHX", "LH", "LRCX", "LW", "LVS", "LDOS", "LEN", "LIN", "LYV",
	"LKQ", "LMT", "L", "LOW", "LULU", "LYB", "MTB", "MPC", "MKTX", "MAR",
	"MMC", "MLM", "MAS", "MA", "MTCH", "MKC", "MCD", "MCK", "MDT", "MRK",
	"META", "MET", "MTD", "MGM", "MCHP", "MU", "MSFT", "MAA", "MRNA", "MHK",
	"MOH", "TAP", "MDLZ", "MPWR", "MNST", "MCO", "MS", "MOS", "MSI", "MSCI",
	"NDAQ", "NTAP", "NFLX", "NEM", "NWSA", "NWS", "NEE", "NKE", "NI", "NDSN",
	"NSC", "NTRS", "NOC", "NCLH", "NRG", "NUE", "NVDA", "NVR", "NXPI", "ORLY",
	"OXY", "ODFL", "OMC", "ON", "OKE", "ORCL", "OTIS", "PCAR", "PKG", "PANW",
	"PH", "PAYX", "PAYC", "PYPL", "PNR", "PEP", "PFE", "PCG", "PM", "PSX",
	"PNW", "PNC", "POOL", "PPG", "PPL", "PFG", "PG", "PGR", "PLD", "PRU",
	"PEG", "PTC", "PSA", "PHM", "QRVO", "PWR", "QCOM", "DGX", "RL", "RJF",
	"RTX", "O", "REG", "REGN", "RF", "RSG", "RMD", "RVTY", "RHI", "ROK",
	"ROL", "ROP", "ROST", "RCL", "SPGI", "CRM", "SBAC", "SLB", "STX", "SEE",
	"SRE", "NOW", "SHW", "SPG", "SWKS", "SJM", "SNA", "SEDG", "SO", "LUV",
	"SWK", "SBUX", "STT", "STLD", "STE", "SYK", "SYF", "SNPS", "SYY", "TMUS",
	"TROW", "TTWO", "TPR", "TRGP", "TGT", "TEL", "TDY", "TFX", "TER", "TSLA",
	"TXN", "TXT", "TMO", "TJX", "TSCO", "TT", "TDG", "TRV", "TRMB", "TFC",
	"TYL", "TSN", "USB", "UBER", "UDR", "ULTA", "UNP", "UAL", "UPS", "URI",
	"UNH", "UHS", "VLO", "VTR", "VRSN", "VRSK", "VZ", "VRTX", "VFC", "VTRS",
	"VICI", "V", "VMC", "WAB", "WMT", "DIS", "WBD", "WM", "WAT", "WEC",
	"WFC", "WELL", "WST", "WDC", "WY", "WHR", "WMB", "WTW", "GWW", "WYNN",
	"XEL", "XYL", "YUM", "ZBRA", "ZBH", "ZION", "ZTS",
}

// SP500Tickers returns a copy of the pinned historical S&P 500 universe.
func SP500Tickers() []string {
	out := make([]string, len(sp500))
	copy(out, sp500)
	return out
}
