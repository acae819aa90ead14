package testutil

import (
	"path/filepath"
	"testing"
)

// GermanCorpus is a small German training corpus, one sentence per line.
const GermanCorpus = `Der Herr sei mit euch allen und mit eurem Geist.
Ich habe euren Brief mit großer Freude empfangen und gelesen.
Die Kirche zu Zürich grüßt euch und alle Brüder herzlich.
Wir haben gehört, dass der Kaiser nach Augsburg gezogen ist.
Schreibt mir bald, wie es euch und den Brüdern in der Stadt geht.
Gott behüte euch und eure ganze Familie vor allem Übel.
Ich danke euch für die Bücher, die ihr mir geschickt habt.
Die Boten sind gestern mit den Briefen aus Bern gekommen.
Es steht nicht gut um die Sache, doch wir hoffen auf Gott.
Der Rat hat beschlossen, dass die Predigt am Sonntag gehalten wird.
Meine Frau und die Kinder lassen euch freundlich grüßen.
Wenn ihr etwas Neues erfahrt, so lasst es mich wissen.
Die Pest ist in der Stadt, aber wir sind bisher gesund geblieben.
Ich bitte euch, dass ihr für uns und unsere Gemeinde betet.
Der Bote wartet, darum muss ich hier schließen.
Lebt wohl im Herrn und grüßt mir eure lieben Freunde.
Man sagt, dass die Fürsten einen Tag halten werden.
Unser Schulmeister hat die Schrift mit Fleiß ausgelegt.
Wir wissen noch nicht, was der Herzog tun wird.
Die Bauern klagen über den Zehnten und die schweren Zeiten.`

// LatinCorpus is a small Latin training corpus, one sentence per line.
const LatinCorpus = `Gratia et pax a domino nostro Iesu Christo.
Literas tuas accepi magno cum gaudio et legi.
Ecclesia Tigurina te et omnes fratres plurimum salutat.
Audivimus caesarem Augustam profectum esse.
Scribe mihi quam primum quomodo valeas cum fratribus.
Dominus te servet cum tota familia tua ab omni malo.
Gratias tibi ago pro libris quos ad me misisti.
Nuntii heri cum literis ex urbe venerunt.
Res nostrae non bene se habent, sed speramus in domino.
Senatus decrevit ut contio die dominico habeatur.
Uxor mea et liberi te amice salutant.
Si quid novi audieris, fac me certiorem.
Pestis in urbe grassatur, sed nos adhuc salvi sumus.
Oro te ut pro nobis et ecclesia nostra ores.
Tabellarius expectat, quare hic finem facio.
Vale in domino et saluta amicos tuos carissimos.
Dicunt principes conventum habituros esse.
Ludimagister noster scripturam diligenter exposuit.
Nescimus adhuc quid dux facturus sit.
Rustici de decimis et temporibus duris queruntur.`

// PersonsList is a persons entity list in "name, id" form.
const PersonsList = `Heinrich Bullinger, p495
Heinrich, p100
Bullinger, p495
Joannes Piscatorius, p1234
Huldrych Zwingli, p1058
Martin Bucer, p2001
`

// PlacesList is a places entity list in "name, id" form.
const PlacesList = `Zürich, l587
Bern, l9
Augsburg, l20
Basel, l6
Roma, l300
`

// SampleTEI is a two-paragraph letter with line-break markers.
const SampleTEI = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader>
    <fileDesc><titleStmt><title>Brief an Bullinger</title></titleStmt></fileDesc>
  </teiHeader>
  <text>
    <body>
      <div type="letter">
        <p>Gnade und Friede von Gott. Ich habe euren Brief von <lb xml:id="p1z1"/>Heinrich Bullinger empfangen. Die Kirche zu Zürich grüßt euch.</p>
        <p>Gratia et pax a domino. Literas tuas <lb xml:id="p2z1"/>ex Bern accepi.</p>
      </div>
    </body>
  </text>
</TEI>
`

// WriteCorpora writes de.txt and la.txt into dir.
func WriteCorpora(t *testing.T, dir string) {
	t.Helper()
	WriteFile(t, dir, "de.txt", GermanCorpus)
	WriteFile(t, dir, "la.txt", LatinCorpus)
}

// WriteEntityLists writes extracted_persons.txt and extracted_places.txt into dir.
func WriteEntityLists(t *testing.T, dir, persons, places string) {
	t.Helper()
	WriteFile(t, dir, "extracted_persons.txt", persons)
	WriteFile(t, dir, "extracted_places.txt", places)
}

// WriteTEI writes a TEI document named name into dir and returns its path.
func WriteTEI(t *testing.T, dir, name, content string) string {
	t.Helper()
	return WriteFile(t, dir, filepath.Clean(name), content)
}

// GoldTEI is a hand-annotated letter. Sentences 5, 6 and 9 are not evaluated:
// 5 holds an automatic name, 6 has a note child and 9 sits inside a note.
const GoldTEI = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <text>
    <body>
      <div>
        <p>
<s n="1">Ich habe euren Brief von <lb xml:id="z1"/><persName ref="p495">Heinrich Bullinger</persName> empfangen.</s>
<s n="2">Die Kirche zu <placeName ref="l587">Zürich</placeName> grüßt euch.</s>
<s n="3">Der Bote wartet.</s>
<s n="5">Gruß von <persName type="auto_name">Martin Bucer</persName>.</s>
<s n="6">Schreibt an Calvin bald.<note>Calvin fehlt</note></s>
<s n="7">Wir grüßen <persName ref="p9999">Oecolampad</persName> herzlich.</s>
<s n="8">Der Rat tagt in Bern morgen.</s>
        </p>
        <note><s n="9">Heinrich Bullinger</s></note>
      </div>
    </body>
  </text>
</TEI>
`
