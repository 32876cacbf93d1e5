package irq

// vectorStubs lists Vector32..Vector255 in vector order so BuildIDT can
// resolve each one's address the same way trap.syscallEntryAddr resolves
// SyscallEntry's, without hand-maintaining 224 reflect.ValueOf calls at
// the call site. Generated alongside genvectors.go.
var vectorStubs = [slotCount]func(){
	Vector32,
	Vector33,
	Vector34,
	Vector35,
	Vector36,
	Vector37,
	Vector38,
	Vector39,
	Vector40,
	Vector41,
	Vector42,
	Vector43,
	Vector44,
	Vector45,
	Vector46,
	Vector47,
	Vector48,
	Vector49,
	Vector50,
	Vector51,
	Vector52,
	Vector53,
	Vector54,
	Vector55,
	Vector56,
	Vector57,
	Vector58,
	Vector59,
	Vector60,
	Vector61,
	Vector62,
	Vector63,
	Vector64,
	Vector65,
	Vector66,
	Vector67,
	Vector68,
	Vector69,
	Vector70,
	Vector71,
	Vector72,
	Vector73,
	Vector74,
	Vector75,
	Vector76,
	Vector77,
	Vector78,
	Vector79,
	Vector80,
	Vector81,
	Vector82,
	Vector83,
	Vector84,
	Vector85,
	Vector86,
	Vector87,
	Vector88,
	Vector89,
	Vector90,
	Vector91,
	Vector92,
	Vector93,
	Vector94,
	Vector95,
	Vector96,
	Vector97,
	Vector98,
	Vector99,
	Vector100,
	Vector101,
	Vector102,
	Vector103,
	Vector104,
	Vector105,
	Vector106,
	Vector107,
	Vector108,
	Vector109,
	Vector110,
	Vector111,
	Vector112,
	Vector113,
	Vector114,
	Vector115,
	Vector116,
	Vector117,
	Vector118,
	Vector119,
	Vector120,
	Vector121,
	Vector122,
	Vector123,
	Vector124,
	Vector125,
	Vector126,
	Vector127,
	Vector128,
	Vector129,
	Vector130,
	Vector131,
	Vector132,
	Vector133,
	Vector134,
	Vector135,
	Vector136,
	Vector137,
	Vector138,
	Vector139,
	Vector140,
	Vector141,
	Vector142,
	Vector143,
	Vector144,
	Vector145,
	Vector146,
	Vector147,
	Vector148,
	Vector149,
	Vector150,
	Vector151,
	Vector152,
	Vector153,
	Vector154,
	Vector155,
	Vector156,
	Vector157,
	Vector158,
	Vector159,
	Vector160,
	Vector161,
	Vector162,
	Vector163,
	Vector164,
	Vector165,
	Vector166,
	Vector167,
	Vector168,
	Vector169,
	Vector170,
	Vector171,
	Vector172,
	Vector173,
	Vector174,
	Vector175,
	Vector176,
	Vector177,
	Vector178,
	Vector179,
	Vector180,
	Vector181,
	Vector182,
	Vector183,
	Vector184,
	Vector185,
	Vector186,
	Vector187,
	Vector188,
	Vector189,
	Vector190,
	Vector191,
	Vector192,
	Vector193,
	Vector194,
	Vector195,
	Vector196,
	Vector197,
	Vector198,
	Vector199,
	Vector200,
	Vector201,
	Vector202,
	Vector203,
	Vector204,
	Vector205,
	Vector206,
	Vector207,
	Vector208,
	Vector209,
	Vector210,
	Vector211,
	Vector212,
	Vector213,
	Vector214,
	Vector215,
	Vector216,
	Vector217,
	Vector218,
	Vector219,
	Vector220,
	Vector221,
	Vector222,
	Vector223,
	Vector224,
	Vector225,
	Vector226,
	Vector227,
	Vector228,
	Vector229,
	Vector230,
	Vector231,
	Vector232,
	Vector233,
	Vector234,
	Vector235,
	Vector236,
	Vector237,
	Vector238,
	Vector239,
	Vector240,
	Vector241,
	Vector242,
	Vector243,
	Vector244,
	Vector245,
	Vector246,
	Vector247,
	Vector248,
	Vector249,
	Vector250,
	Vector251,
	Vector252,
	Vector253,
	Vector254,
	Vector255,
}
