package prompt

// Built-in templates used when the store has nothing configured for an
// indexador. Placeholders: {{texto}}, {{tipo}}.

const DefaultTipoEscrita = `Analise o documento de registro civil a seguir e responda APENAS com JSON no formato:
{"tipo": "manuscrito" ou "digitado", "confidence": 0.0 a 1.0, "tipoRegistro": "NASCIMENTO", "CASAMENTO" ou "OBITO"}

Documento:
{{texto}}`

const DefaultLeitura = `Voce e um digitador de cartorio de registro civil. Extraia do texto abaixo um registro de {{tipo}} e responda APENAS com JSON no formato:
{"tipoAto": "INCLUSAO" ou "ALTERACAO", "campos": {"CAMPO": "valor"}, "filiacoes": [{"nome": "...", "sexo": "MASCULINO" ou "FEMININO"}], "documentos": [{"titular": "...", "tipo": "...", "numero": "..."}], "beneficios": []}

Use datas no formato DD/MM/AAAA. Nao invente valores: omita campos ausentes do texto.

Texto:
{{texto}}`

const DefaultLeituraManuscrito = `Voce e um digitador de cartorio de registro civil. A imagem anexa e um livro manuscrito de {{tipo}}. Transcreva o assento e responda APENAS com JSON no formato:
{"tipoAto": "INCLUSAO", "campos": {"CAMPO": "valor"}, "filiacoes": [{"nome": "...", "sexo": "MASCULINO" ou "FEMININO"}], "documentos": [{"titular": "...", "tipo": "...", "numero": "..."}], "beneficios": []}

Use datas no formato DD/MM/AAAA. Nao invente valores: omita campos ilegiveis.`

const DefaultOCR = `Transcreva integralmente o texto desta imagem de um livro de registro civil brasileiro. Idioma: portugues. Responda apenas com o texto transcrito, sem comentarios.`

const DefaultXML = `Gere um documento XML <carga> para o sistema de registro civil a partir dos registros JSON abaixo, tipo {{tipo}}. Responda APENAS com o XML.

Registros:
{{texto}}`
