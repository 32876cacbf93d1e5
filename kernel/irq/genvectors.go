package irq

// Vector32..Vector255 are the naked asm entry points vectors_amd64.s
// defines, one per vector in [FirstVector, LastVector]: push the vector
// number and fall into stubCommon. Generated by
// `go generate ./kernel/irq`; see internal/genvectors/main.go.
func Vector32()
func Vector33()
func Vector34()
func Vector35()
func Vector36()
func Vector37()
func Vector38()
func Vector39()
func Vector40()
func Vector41()
func Vector42()
func Vector43()
func Vector44()
func Vector45()
func Vector46()
func Vector47()
func Vector48()
func Vector49()
func Vector50()
func Vector51()
func Vector52()
func Vector53()
func Vector54()
func Vector55()
func Vector56()
func Vector57()
func Vector58()
func Vector59()
func Vector60()
func Vector61()
func Vector62()
func Vector63()
func Vector64()
func Vector65()
func Vector66()
func Vector67()
func Vector68()
func Vector69()
func Vector70()
func Vector71()
func Vector72()
func Vector73()
func Vector74()
func Vector75()
func Vector76()
func Vector77()
func Vector78()
func Vector79()
func Vector80()
func Vector81()
func Vector82()
func Vector83()
func Vector84()
func Vector85()
func Vector86()
func Vector87()
func Vector88()
func Vector89()
func Vector90()
func Vector91()
func Vector92()
func Vector93()
func Vector94()
func Vector95()
func Vector96()
func Vector97()
func Vector98()
func Vector99()
func Vector100()
func Vector101()
func Vector102()
func Vector103()
func Vector104()
func Vector105()
func Vector106()
func Vector107()
func Vector108()
func Vector109()
func Vector110()
func Vector111()
func Vector112()
func Vector113()
func Vector114()
func Vector115()
func Vector116()
func Vector117()
func Vector118()
func Vector119()
func Vector120()
func Vector121()
func Vector122()
func Vector123()
func Vector124()
func Vector125()
func Vector126()
func Vector127()
func Vector128()
func Vector129()
func Vector130()
func Vector131()
func Vector132()
func Vector133()
func Vector134()
func Vector135()
func Vector136()
func Vector137()
func Vector138()
func Vector139()
func Vector140()
func Vector141()
func Vector142()
func Vector143()
func Vector144()
func Vector145()
func Vector146()
func Vector147()
func Vector148()
func Vector149()
func Vector150()
func Vector151()
func Vector152()
func Vector153()
func Vector154()
func Vector155()
func Vector156()
func Vector157()
func Vector158()
func Vector159()
func Vector160()
func Vector161()
func Vector162()
func Vector163()
func Vector164()
func Vector165()
func Vector166()
func Vector167()
func Vector168()
func Vector169()
func Vector170()
func Vector171()
func Vector172()
func Vector173()
func Vector174()
func Vector175()
func Vector176()
func Vector177()
func Vector178()
func Vector179()
func Vector180()
func Vector181()
func Vector182()
func Vector183()
func Vector184()
func Vector185()
func Vector186()
func Vector187()
func Vector188()
func Vector189()
func Vector190()
func Vector191()
func Vector192()
func Vector193()
func Vector194()
func Vector195()
func Vector196()
func Vector197()
func Vector198()
func Vector199()
func Vector200()
func Vector201()
func Vector202()
func Vector203()
func Vector204()
func Vector205()
func Vector206()
func Vector207()
func Vector208()
func Vector209()
func Vector210()
func Vector211()
func Vector212()
func Vector213()
func Vector214()
func Vector215()
func Vector216()
func Vector217()
func Vector218()
func Vector219()
func Vector220()
func Vector221()
func Vector222()
func Vector223()
func Vector224()
func Vector225()
func Vector226()
func Vector227()
func Vector228()
func Vector229()
func Vector230()
func Vector231()
func Vector232()
func Vector233()
func Vector234()
func Vector235()
func Vector236()
func Vector237()
func Vector238()
func Vector239()
func Vector240()
func Vector241()
func Vector242()
func Vector243()
func Vector244()
func Vector245()
func Vector246()
func Vector247()
func Vector248()
func Vector249()
func Vector250()
func Vector251()
func Vector252()
func Vector253()
func Vector254()
func Vector255()

//go:generate go run ./internal/genvectors
